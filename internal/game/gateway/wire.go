package gateway

import (
	"encoding/json"
)

// CommandType identifies an inbound client command.
type CommandType string

const (
	CommandSetMode       CommandType = "set_mode"
	CommandStartGame     CommandType = "start_game"
	CommandStartRound    CommandType = "start_round"
	CommandPianoKeyClick CommandType = "piano_key_click"
	CommandSubmitGuess   CommandType = "submit_guess"
	CommandSubmit        CommandType = "submit"
	CommandAdvanceRound  CommandType = "advance_round"
	CommandReplayNote    CommandType = "replay_note"
	CommandPause         CommandType = "pause"
	CommandResume        CommandType = "resume"
	CommandReset         CommandType = "reset"
	CommandPlayAgain     CommandType = "play_again"
)

// ClientCommand is one message from the browser.
type ClientCommand struct {
	Type CommandType `json:"type"`

	// piano_key_click / submit_guess
	Note  string `json:"note,omitempty"`
	Guess string `json:"guess,omitempty"`

	// set_mode
	Mode     string          `json:"mode,omitempty"`     // RUSH | SURVIVAL | SANDBOX
	Training string          `json:"training,omitempty"` // ear | chord
	Settings json.RawMessage `json:"settings,omitempty"`
	Filter   json.RawMessage `json:"filter,omitempty"`
}

// ErrorPayload is sent to the client when a command fails.
type ErrorPayload struct {
	Command CommandType `json:"command"`
	Message string      `json:"message"`
}
