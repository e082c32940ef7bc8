package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNote_String(t *testing.T) {
	assert.Equal(t, "C4", Note{Name: C, Octave: 4}.String())
	assert.Equal(t, "F#3", Note{Name: FSharp, Octave: 3}.String())
}

func TestNote_MIDI(t *testing.T) {
	assert.Equal(t, 60, Note{Name: C, Octave: 4}.MIDI())
	assert.Equal(t, 69, Note{Name: A, Octave: 4}.MIDI())
	assert.Equal(t, 21, Note{Name: A, Octave: 0}.MIDI())
}

func TestNote_Frequency(t *testing.T) {
	assert.InDelta(t, 440.0, Note{Name: A, Octave: 4}.Frequency(), 0.001)
	assert.InDelta(t, 261.626, Note{Name: C, Octave: 4}.Frequency(), 0.001)
	assert.InDelta(t, 880.0, Note{Name: A, Octave: 5}.Frequency(), 0.001)
}

func TestFromMIDI_RoundTrip(t *testing.T) {
	for midi := 21; midi <= 108; midi++ {
		assert.Equal(t, midi, FromMIDI(midi).MIDI())
	}
	assert.Equal(t, Note{Name: C, Octave: 4}, FromMIDI(60))
}

func TestParseNote(t *testing.T) {
	n, err := ParseNote("C4")
	require.NoError(t, err)
	assert.Equal(t, Note{Name: C, Octave: 4}, n)

	n, err = ParseNote("F#3")
	require.NoError(t, err)
	assert.Equal(t, Note{Name: FSharp, Octave: 3}, n)

	_, err = ParseNote("H2")
	assert.Error(t, err)
	_, err = ParseNote("C")
	assert.Error(t, err)
	_, err = ParseNote("")
	assert.Error(t, err)
}

func TestNewChord(t *testing.T) {
	c := NewChord(Note{Name: C, Octave: 4}, QualityMajor)
	assert.Equal(t, "C", c.Name)
	assert.Equal(t, []Note{
		{Name: C, Octave: 4},
		{Name: E, Octave: 4},
		{Name: G, Octave: 4},
	}, c.Notes)

	m7 := NewChord(Note{Name: D, Octave: 4}, QualityMinor7)
	assert.Equal(t, "Dm7", m7.Name)
	assert.Len(t, m7.Notes, 4)

	// Chords can cross the octave boundary.
	b := NewChord(Note{Name: B, Octave: 3}, QualityMajor)
	assert.Equal(t, []Note{
		{Name: B, Octave: 3},
		{Name: DSharp, Octave: 4},
		{Name: FSharp, Octave: 4},
	}, b.Notes)
}

func TestChord_Contains(t *testing.T) {
	c := NewChord(Note{Name: C, Octave: 4}, QualityMajor)
	assert.True(t, c.Contains(Note{Name: E, Octave: 7}))
	assert.False(t, c.Contains(Note{Name: D, Octave: 4}))
}

func TestGenerator_RespectsFilter(t *testing.T) {
	g := NewGenerator(1)
	f := Filter{MinOctave: 3, MaxOctave: 5, NaturalsOnly: true}

	naturals := make(map[NoteName]bool)
	for _, n := range NaturalNotes {
		naturals[n] = true
	}

	for i := 0; i < 200; i++ {
		n := g.RandomNote(f)
		assert.True(t, naturals[n.Name], "unexpected pitch class %s", n.Name)
		assert.GreaterOrEqual(t, n.Octave, 3)
		assert.LessOrEqual(t, n.Octave, 5)
	}
}

func TestGenerator_AllowedNamesOverride(t *testing.T) {
	g := NewGenerator(1)
	f := Filter{MinOctave: 4, MaxOctave: 4, AllowedNames: []NoteName{C, G}}

	for i := 0; i < 50; i++ {
		n := g.RandomNote(f)
		assert.Contains(t, []NoteName{C, G}, n.Name)
		assert.Equal(t, 4, n.Octave)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a, b := NewGenerator(99), NewGenerator(99)
	for i := 0; i < 20; i++ {
		require.Equal(t, a.RandomNote(DefaultFilter()), b.RandomNote(DefaultFilter()))
	}
}

func TestGenerator_RandomChordWithinFilter(t *testing.T) {
	g := NewGenerator(5)
	for i := 0; i < 50; i++ {
		c := g.RandomChord(DefaultFilter())
		assert.Equal(t, 4, c.Root.Octave)
		assert.NotEmpty(t, c.Name)
		assert.GreaterOrEqual(t, len(c.Notes), 3)
	}
}
