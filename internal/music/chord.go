package music

import "fmt"

// ChordQuality identifies the interval structure of a chord.
type ChordQuality string

const (
	QualityMajor      ChordQuality = "MAJOR"
	QualityMinor      ChordQuality = "MINOR"
	QualityDiminished ChordQuality = "DIMINISHED"
	QualityAugmented  ChordQuality = "AUGMENTED"
	QualityDominant7  ChordQuality = "DOMINANT7"
	QualityMajor7     ChordQuality = "MAJOR7"
	QualityMinor7     ChordQuality = "MINOR7"
)

// chordIntervals maps a quality to semitone offsets from the root.
var chordIntervals = map[ChordQuality][]int{
	QualityMajor:      {0, 4, 7},
	QualityMinor:      {0, 3, 7},
	QualityDiminished: {0, 3, 6},
	QualityAugmented:  {0, 4, 8},
	QualityDominant7:  {0, 4, 7, 10},
	QualityMajor7:     {0, 4, 7, 11},
	QualityMinor7:     {0, 3, 7, 10},
}

// qualitySuffix is the display suffix for a chord name, e.g. "Cm7".
var qualitySuffix = map[ChordQuality]string{
	QualityMajor:      "",
	QualityMinor:      "m",
	QualityDiminished: "dim",
	QualityAugmented:  "aug",
	QualityDominant7:  "7",
	QualityMajor7:     "maj7",
	QualityMinor7:     "m7",
}

// Chord is a named set of notes built from a root and a quality.
type Chord struct {
	Name    string       `json:"name"`
	Root    Note         `json:"root"`
	Quality ChordQuality `json:"quality"`
	Notes   []Note       `json:"notes"`
}

// NewChord builds a chord from a root note and quality.
func NewChord(root Note, quality ChordQuality) Chord {
	intervals, ok := chordIntervals[quality]
	if !ok {
		intervals = chordIntervals[QualityMajor]
		quality = QualityMajor
	}
	notes := make([]Note, len(intervals))
	for i, iv := range intervals {
		notes[i] = FromMIDI(root.MIDI() + iv)
	}
	return Chord{
		Name:    fmt.Sprintf("%s%s", root.Name, qualitySuffix[quality]),
		Root:    root,
		Quality: quality,
		Notes:   notes,
	}
}

// Contains reports whether the chord includes the given pitch class,
// ignoring octave.
func (c Chord) Contains(n Note) bool {
	for _, cn := range c.Notes {
		if cn.Name == n.Name {
			return true
		}
	}
	return false
}
