package music

import (
	"math/rand"
)

// Filter constrains which notes a generator may produce.
type Filter struct {
	MinOctave    int        `json:"min_octave"`
	MaxOctave    int        `json:"max_octave"`
	NaturalsOnly bool       `json:"naturals_only"`
	AllowedNames []NoteName `json:"allowed_names,omitempty"`
}

// DefaultFilter covers one octave of natural notes around middle C.
func DefaultFilter() Filter {
	return Filter{MinOctave: 4, MaxOctave: 4, NaturalsOnly: true}
}

// names resolves the pitch-class pool the filter allows.
func (f Filter) names() []NoteName {
	if len(f.AllowedNames) > 0 {
		return f.AllowedNames
	}
	if f.NaturalsOnly {
		return NaturalNotes
	}
	return ChromaticScale
}

// Generator produces random notes and chords within a filter.
// A nil source falls back to the shared global source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// RandomNote picks a uniformly random note allowed by the filter.
func (g *Generator) RandomNote(f Filter) Note {
	names := f.names()
	minOct, maxOct := f.MinOctave, f.MaxOctave
	if maxOct < minOct {
		maxOct = minOct
	}
	return Note{
		Name:   names[g.rng.Intn(len(names))],
		Octave: minOct + g.rng.Intn(maxOct-minOct+1),
	}
}

// RandomChord picks a random triad or seventh chord rooted on a note
// allowed by the filter.
func (g *Generator) RandomChord(f Filter) Chord {
	qualities := []ChordQuality{
		QualityMajor, QualityMinor, QualityDiminished, QualityAugmented,
		QualityDominant7, QualityMajor7, QualityMinor7,
	}
	return NewChord(g.RandomNote(f), qualities[g.rng.Intn(len(qualities))])
}
