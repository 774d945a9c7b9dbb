package audio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ----- Pitch Class ----- //

// PitchClass is one of the 12 semitones, C = 0.
type PitchClass int

const (
	PitchC PitchClass = iota
	PitchCSharp
	PitchD
	PitchDSharp
	PitchE
	PitchF
	PitchFSharp
	PitchG
	PitchGSharp
	PitchA
	PitchASharp
	PitchB
)

// frequency of A at octave 0; every other pitch class is equal-tempered from it.
const baseFreqA = 55.0

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var flatNames = map[string]PitchClass{
	"Db": PitchCSharp,
	"Eb": PitchDSharp,
	"Gb": PitchFSharp,
	"Ab": PitchGSharp,
	"Bb": PitchASharp,
}

func (p PitchClass) String() string {
	if p < 0 || int(p) >= len(pitchClassNames) {
		return "PitchClass(" + strconv.Itoa(int(p)) + ")"
	}
	return pitchClassNames[p]
}

// ParsePitchClass accepts sharp ("C#") and flat ("Db") spellings, case-insensitively.
func ParsePitchClass(s string) (PitchClass, error) {
	name := strings.TrimSpace(s)
	if len(name) > 0 {
		name = strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
	}
	for i, n := range pitchClassNames {
		if n == name {
			return PitchClass(i), nil
		}
	}
	if p, ok := flatNames[name]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("%w: pitch class %q", ErrInvalidNote, s)
}

// baseFrequency returns the frequency of the pitch class at octave 0.
func (p PitchClass) baseFrequency() float64 {
	return baseFreqA * math.Pow(2, float64(int(p)-int(PitchA))/12)
}

// ----- Note ----- //

// Note identifies a playable note. At most one voice is alive per Note.
type Note struct {
	PitchClass PitchClass
	Octave     int
}

// NewNote ...
func NewNote(pitch PitchClass, octave int) Note {
	return Note{PitchClass: pitch, Octave: octave}
}

// ParseNote parses a pitch class name and an octave number, e.g. ("A", "4").
func ParseNote(pitch string, octave string) (Note, error) {
	p, err := ParsePitchClass(pitch)
	if err != nil {
		return Note{}, err
	}
	o, err := strconv.Atoi(octave)
	if err != nil {
		return Note{}, fmt.Errorf("%w: octave %q", ErrInvalidNote, octave)
	}
	return Note{PitchClass: p, Octave: o}, nil
}

// Freq returns the equal-tempered frequency: baseFrequency(pitchClass) * 2^octave.
func (n Note) Freq() float64 {
	return n.PitchClass.baseFrequency() * math.Pow(2, float64(n.Octave))
}

func (n Note) String() string {
	return n.PitchClass.String() + strconv.Itoa(n.Octave)
}

// ParseNoteName parses the combined form produced by Note.String, e.g. "C#4" or "Bb-1".
func ParseNoteName(s string) (Note, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool {
		return r == '-' || (r >= '0' && r <= '9')
	})
	if i <= 0 {
		return Note{}, fmt.Errorf("%w: note name %q", ErrInvalidNote, s)
	}
	return ParseNote(s[:i], s[i:])
}
