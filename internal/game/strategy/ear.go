package strategy

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchlab/internal/audio"
	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/game/mode"
	"github.com/mcdev12/pitchlab/internal/music"
	"github.com/rs/zerolog/log"
)

// NoteDuration is how long a challenge note is sounded.
const NoteDuration = 1500 * time.Millisecond

// EarTraining is the single-note strategy: one note per round, and the
// piano click is the submission.
type EarTraining struct {
	player      audio.Player
	clock       clockwork.Clock
	gameMode    mode.GameMode
	initialized bool
}

// NewEarTraining creates the ear-training strategy.
func NewEarTraining(player audio.Player, clock clockwork.Clock) *EarTraining {
	return &EarTraining{player: player, clock: clock}
}

var _ Strategy = (*EarTraining)(nil)

func (e *EarTraining) StartNewRound(gameMode mode.GameMode, filter music.Filter) (*RoundContext, error) {
	challenge := gameMode.GenerateNote(filter)
	if challenge.Note == nil {
		// Chord-configured mode behind the ear strategy; take the root.
		if challenge.Chord == nil {
			return nil, fmt.Errorf("mode %s generated an empty challenge", gameMode.Mode())
		}
		root := challenge.Chord.Root
		challenge = mode.Challenge{Note: &root}
	}
	gameMode.OnStartNewRound()
	e.gameMode = gameMode
	e.initialized = true

	e.player.PlayNote(*challenge.Note, NoteDuration)

	return &RoundContext{
		StartTime: e.clock.Now(),
		Note:      challenge.Note,
	}, nil
}

// HandlePianoKeyClick stores the clicked note as the guess; the
// orchestrator validates immediately afterwards.
func (e *EarTraining) HandlePianoKeyClick(n music.Note, ctx *RoundContext) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	ctx.GuessedNote = n.String()
	ctx.NoteHighlights = append(ctx.NoteHighlights, Highlight{Note: n, Kind: HighlightGuessed})
	return nil
}

// HandleSubmitClick is a no-op: ear training auto-submits on click.
func (e *EarTraining) HandleSubmitClick(ctx *RoundContext) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Validate reports whether the stored guess matches the challenge note.
func (e *EarTraining) Validate(ctx *RoundContext) bool {
	if !e.initialized || ctx == nil || ctx.Note == nil || ctx.GuessedNote == "" {
		return false
	}
	return e.gameMode.ValidateGuess(ctx.GuessedNote, ctx.Note.String())
}

func (e *EarTraining) ValidateAndAdvance(ctx *RoundContext) (events.GuessResult, error) {
	if !e.initialized {
		return events.GuessResult{}, ErrNotInitialized
	}
	if ctx == nil || ctx.Note == nil || ctx.GuessedNote == "" {
		// Submitting with no stored guess is a user-facing condition, not
		// a sequencing bug.
		return events.GuessResult{Feedback: "No guess provided"}, nil
	}

	actual := ctx.Note.String()
	if e.gameMode.ValidateGuess(ctx.GuessedNote, actual) {
		ctx.NoteHighlights = append(ctx.NoteHighlights, Highlight{Note: *ctx.Note, Kind: HighlightCorrect})
		return e.gameMode.HandleCorrectGuess(), nil
	}
	ctx.NoteHighlights = append(ctx.NoteHighlights, Highlight{Note: *ctx.Note, Kind: HighlightMissed})
	log.Debug().Str("guessed", ctx.GuessedNote).Str("actual", actual).Msg("incorrect ear-training guess")
	return e.gameMode.HandleIncorrectGuess(), nil
}

// CanSubmit is always true: any click is a complete guess.
func (e *EarTraining) CanSubmit(ctx *RoundContext) bool { return true }

// ShouldAutoAdvance is always true: correct answers advance automatically.
func (e *EarTraining) ShouldAutoAdvance() bool { return true }

// AutoSubmits is always true: the piano click is the submission.
func (e *EarTraining) AutoSubmits() bool { return true }
