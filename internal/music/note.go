package music

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoteName is a pitch class within an octave.
type NoteName string

const (
	C      NoteName = "C"
	CSharp NoteName = "C#"
	D      NoteName = "D"
	DSharp NoteName = "D#"
	E      NoteName = "E"
	F      NoteName = "F"
	FSharp NoteName = "F#"
	G      NoteName = "G"
	GSharp NoteName = "G#"
	A      NoteName = "A"
	ASharp NoteName = "A#"
	B      NoteName = "B"
)

// ChromaticScale lists the twelve pitch classes in ascending order from C.
var ChromaticScale = []NoteName{C, CSharp, D, DSharp, E, F, FSharp, G, GSharp, A, ASharp, B}

// NaturalNotes lists the seven natural (white-key) pitch classes.
var NaturalNotes = []NoteName{C, D, E, F, G, A, B}

// Note is a concrete pitch: a name plus an octave, e.g. C4.
type Note struct {
	Name   NoteName `json:"name"`
	Octave int      `json:"octave"`
}

// String renders the note in scientific pitch notation, e.g. "C#4".
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// MIDI returns the MIDI note number (C4 = 60).
func (n Note) MIDI() int {
	idx := 0
	for i, name := range ChromaticScale {
		if name == n.Name {
			idx = i
			break
		}
	}
	return (n.Octave+1)*12 + idx
}

// Frequency returns the equal-temperament frequency in Hz (A4 = 440).
func (n Note) Frequency() float64 {
	return 440.0 * math.Pow(2, float64(n.MIDI()-69)/12.0)
}

// FromMIDI builds a Note from a MIDI note number.
func FromMIDI(midi int) Note {
	return Note{
		Name:   ChromaticScale[((midi%12)+12)%12],
		Octave: midi/12 - 1,
	}
}

// ParseNote parses scientific pitch notation such as "C4" or "F#3".
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Note{}, fmt.Errorf("invalid note %q", s)
	}
	split := 1
	if len(s) > 2 && s[1] == '#' {
		split = 2
	}
	name := NoteName(s[:split])
	valid := false
	for _, n := range ChromaticScale {
		if n == name {
			valid = true
			break
		}
	}
	if !valid {
		return Note{}, fmt.Errorf("invalid note name %q", s[:split])
	}
	octave, err := strconv.Atoi(s[split:])
	if err != nil {
		return Note{}, fmt.Errorf("invalid octave in %q: %w", s, err)
	}
	return Note{Name: name, Octave: octave}, nil
}
