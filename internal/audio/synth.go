package audio

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/mcdev12/pitchlab/internal/music"
	"github.com/rs/zerolog/log"
)

const (
	sampleRate   = 44100
	channelCount = 2
)

// ChordDuration is how long a chord is sounded when played as a challenge.
const ChordDuration = 2 * time.Second

// SynthPlayer renders notes and chords as enveloped sine waves through an
// oto audio context.
type SynthPlayer struct {
	mu  sync.Mutex
	ctx *oto.Context
}

// NewSynthPlayer creates an uninitialized synth player. Initialize must be
// called before playback.
func NewSynthPlayer() *SynthPlayer {
	return &SynthPlayer{}
}

var _ Player = (*SynthPlayer)(nil)

// Initialize opens the audio device. It blocks until the device is ready
// or the context is cancelled.
func (s *SynthPlayer) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return nil
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("failed to open audio context: %w", err)
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.ctx = otoCtx
	log.Info().Int("sample_rate", sampleRate).Msg("audio context initialized")
	return nil
}

// PlayNote sounds a single note. Playback is fire-and-forget.
func (s *SynthPlayer) PlayNote(n music.Note, duration time.Duration) {
	s.play([]float64{n.Frequency()}, duration)
}

// PlayChord sounds all chord tones together.
func (s *SynthPlayer) PlayChord(c music.Chord) {
	freqs := make([]float64, len(c.Notes))
	for i, n := range c.Notes {
		freqs[i] = n.Frequency()
	}
	s.play(freqs, ChordDuration)
}

func (s *SynthPlayer) play(freqs []float64, duration time.Duration) {
	s.mu.Lock()
	otoCtx := s.ctx
	s.mu.Unlock()
	if otoCtx == nil {
		log.Warn().Msg("audio playback requested before initialization")
		return
	}

	player := otoCtx.NewPlayer(newToneReader(freqs, duration))
	player.Play()
	go func() {
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		if err := player.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close audio player")
		}
	}()
}

// toneReader streams 16-bit PCM for a mix of sine tones with a linear
// attack/release envelope.
type toneReader struct {
	freqs   []float64
	total   int // total frames
	pos     int // frames emitted
	attack  int
	release int
}

func newToneReader(freqs []float64, duration time.Duration) *toneReader {
	total := int(float64(sampleRate) * duration.Seconds())
	envelope := sampleRate / 50 // 20ms ramps
	return &toneReader{
		freqs:   freqs,
		total:   total,
		attack:  envelope,
		release: envelope,
	}
}

func (r *toneReader) Read(p []byte) (int, error) {
	const bytesPerFrame = 2 * channelCount
	frames := len(p) / bytesPerFrame
	if remaining := r.total - r.pos; frames > remaining {
		frames = remaining
	}
	if frames <= 0 {
		return 0, io.EOF
	}

	amplitude := 0.3 / float64(len(r.freqs))
	for i := 0; i < frames; i++ {
		frame := r.pos + i
		sample := 0.0
		for _, f := range r.freqs {
			sample += math.Sin(2 * math.Pi * f * float64(frame) / sampleRate)
		}
		sample *= amplitude * r.envelope(frame)

		v := int16(sample * math.MaxInt16)
		for ch := 0; ch < channelCount; ch++ {
			offset := i*bytesPerFrame + ch*2
			p[offset] = byte(v)
			p[offset+1] = byte(v >> 8)
		}
	}
	r.pos += frames
	return frames * bytesPerFrame, nil
}

func (r *toneReader) envelope(frame int) float64 {
	if frame < r.attack {
		return float64(frame) / float64(r.attack)
	}
	if tail := r.total - frame; tail < r.release {
		return float64(tail) / float64(r.release)
	}
	return 1.0
}
