package audio

import (
	"context"
	"time"

	"github.com/mcdev12/pitchlab/internal/music"
)

// Player is the audio collaborator boundary. The game core only ever
// triggers playback; synthesis details live behind this interface.
type Player interface {
	Initialize(ctx context.Context) error
	PlayNote(n music.Note, duration time.Duration)
	PlayChord(c music.Chord)
}

// NopPlayer discards all playback. Used in tests and headless deployments.
type NopPlayer struct{}

func (NopPlayer) Initialize(ctx context.Context) error { return nil }

func (NopPlayer) PlayNote(n music.Note, duration time.Duration) {}

func (NopPlayer) PlayChord(c music.Chord) {}

var _ Player = NopPlayer{}
