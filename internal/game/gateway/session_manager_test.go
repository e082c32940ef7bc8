package gateway

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchlab/internal/audio"
	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/game/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*Session, *SessionManager) {
	t.Helper()
	sm := NewSessionManager(DefaultConnectionConfig(), orchestrator.DefaultConfig(), audio.NopPlayer{}, clockwork.NewFakeClock())
	s := &Session{
		ID:      uuid.New(),
		Send:    make(chan []byte, 256),
		manager: sm,
	}
	return s, sm
}

// drainTypes decodes the type field of every message buffered on the send
// channel.
func drainTypes(t *testing.T, s *Session) []string {
	t.Helper()
	var types []string
	for {
		select {
		case msg := <-s.Send:
			var envelope struct {
				Type string `json:"type"`
			}
			require.NoError(t, json.Unmarshal(msg, &envelope))
			types = append(types, envelope.Type)
		default:
			return types
		}
	}
}

func command(t *testing.T, s *Session, cmd ClientCommand) {
	t.Helper()
	raw, err := json.Marshal(cmd)
	require.NoError(t, err)
	s.handleCommand(raw)
}

func TestSession_SetModeConfiguresOrchestrator(t *testing.T) {
	s, _ := newTestSession(t)

	command(t, s, ClientCommand{Type: CommandSetMode, Mode: "RUSH", Training: "ear"})
	require.NotNil(t, s.orch)
	assert.Empty(t, drainTypes(t, s))

	command(t, s, ClientCommand{Type: CommandStartRound})
	types := drainTypes(t, s)
	require.Equal(t, []string{
		string(events.TypeStateChange),
		string(events.TypeRoundStart),
	}, types)
}

func TestSession_CommandBeforeSetModeFails(t *testing.T) {
	s, _ := newTestSession(t)

	command(t, s, ClientCommand{Type: CommandStartGame})
	types := drainTypes(t, s)
	require.Equal(t, []string{"error"}, types)
}

func TestSession_UnknownModeRejected(t *testing.T) {
	s, _ := newTestSession(t)

	command(t, s, ClientCommand{Type: CommandSetMode, Mode: "SPEEDRUN", Training: "ear"})
	assert.Nil(t, s.orch)
	assert.Equal(t, []string{"error"}, drainTypes(t, s))
}

func TestSession_MalformedNoteRejected(t *testing.T) {
	s, _ := newTestSession(t)
	command(t, s, ClientCommand{Type: CommandSetMode, Mode: "RUSH", Training: "ear"})
	command(t, s, ClientCommand{Type: CommandStartRound})
	drainTypes(t, s)

	command(t, s, ClientCommand{Type: CommandPianoKeyClick, Note: "H9"})
	assert.Equal(t, []string{"error"}, drainTypes(t, s))
}

func TestSession_UnknownCommandRejected(t *testing.T) {
	s, _ := newTestSession(t)
	command(t, s, ClientCommand{Type: CommandSetMode, Mode: "RUSH", Training: "ear"})

	command(t, s, ClientCommand{Type: CommandType("warp")})
	assert.Equal(t, []string{"error"}, drainTypes(t, s))
}

func TestSession_SetModeReplacesOrchestrator(t *testing.T) {
	s, _ := newTestSession(t)

	command(t, s, ClientCommand{Type: CommandSetMode, Mode: "RUSH", Training: "ear"})
	first := s.orch
	require.NotNil(t, first)

	command(t, s, ClientCommand{Type: CommandSetMode, Mode: "SURVIVAL", Training: "ear"})
	second := s.orch
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID(), second.ID())

	// The replaced orchestrator was stopped: its commands no longer reach
	// this session.
	first.StartGame()
	assert.Empty(t, drainTypes(t, s))
}

func TestSession_SettingsAndFilterUnmarshal(t *testing.T) {
	s, _ := newTestSession(t)

	command(t, s, ClientCommand{
		Type:     CommandSetMode,
		Mode:     "RUSH",
		Training: "ear",
		Settings: json.RawMessage(`{"target_notes": 1}`),
		Filter:   json.RawMessage(`{"min_octave": 4, "max_octave": 4, "naturals_only": true}`),
	})
	require.NotNil(t, s.orch)

	// target_notes 1 means a single correct guess completes the session.
	command(t, s, ClientCommand{Type: CommandStartRound})
	var notePayload struct {
		Data struct {
			Note struct {
				Name   string `json:"name"`
				Octave int    `json:"octave"`
			} `json:"note"`
		} `json:"data"`
	}
	var noteLabel string
	for {
		msg := <-s.Send
		var envelope struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(msg, &envelope))
		if envelope.Type == string(events.TypeRoundStart) {
			require.NoError(t, json.Unmarshal(msg, &notePayload))
			noteLabel = notePayload.Data.Note.Name + "4"
			break
		}
	}

	command(t, s, ClientCommand{Type: CommandSubmitGuess, Guess: noteLabel})
	types := drainTypes(t, s)
	assert.Contains(t, types, string(events.TypeSessionComplete))
}

func TestSessionManager_EventSinksSeeAllEvents(t *testing.T) {
	s, sm := newTestSession(t)

	var mu sync.Mutex
	var sunk []events.Type
	sm.AddEventSink(func(ev orchestrator.Event) {
		mu.Lock()
		defer mu.Unlock()
		sunk = append(sunk, ev.Type)
	})

	command(t, s, ClientCommand{Type: CommandSetMode, Mode: "SANDBOX", Training: "ear"})
	command(t, s, ClientCommand{Type: CommandStartRound})

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, sunk, events.TypeStateChange)
	assert.Contains(t, sunk, events.TypeRoundStart)
}
