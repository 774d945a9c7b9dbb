package audio

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	defaultBPM     = 120.0
	defaultTailSec = 3.0
	gateRatio      = 0.9
)

// ----- Phrase ----- //

// PhraseStep holds notes together for a number of beats.
type PhraseStep struct {
	Notes []Note
	Beats float64
}

// Phrase is a fixed note sequence used for offline rendering.
type Phrase struct {
	BPM     float64
	Steps   []PhraseStep
	TailSec float64 // silence after the last step, to let releases finish
}

// DefaultPhrase is a short chord progression.
func DefaultPhrase() Phrase {
	p, err := ParsePhrase("C4,E4,G4:2 A3,C4,E4:2 F3,A3,C4:2 G3,B3,D4:2", defaultBPM)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePhrase reads space separated steps of the form "C4,E4,G4:2".
// The beat count is optional and defaults to 1. A step of "-" is a rest.
func ParsePhrase(s string, bpm float64) (Phrase, error) {
	if bpm <= 0 {
		return Phrase{}, fmt.Errorf("%w: bpm %v", ErrInvalidValue, bpm)
	}
	phrase := Phrase{BPM: bpm, TailSec: defaultTailSec}
	for _, item := range strings.Fields(s) {
		notesPart, beatsPart, hasBeats := strings.Cut(item, ":")
		step := PhraseStep{Beats: 1}
		if hasBeats {
			beats, err := strconv.ParseFloat(beatsPart, 64)
			if err != nil || beats <= 0 {
				return Phrase{}, fmt.Errorf("%w: beats %q", ErrInvalidValue, beatsPart)
			}
			step.Beats = beats
		}
		if notesPart != "-" {
			for _, name := range strings.Split(notesPart, ",") {
				note, err := ParseNoteName(name)
				if err != nil {
					return Phrase{}, err
				}
				step.Notes = append(step.Notes, note)
			}
		}
		phrase.Steps = append(phrase.Steps, step)
	}
	if len(phrase.Steps) == 0 {
		return Phrase{}, fmt.Errorf("%w: empty phrase", ErrInvalidValue)
	}
	return phrase, nil
}

func (ph Phrase) stepSamples(step PhraseStep, sampleRate int) (gate int, rest int) {
	total := int(step.Beats * 60 / ph.BPM * float64(sampleRate))
	gate = int(float64(total) * gateRatio)
	return gate, total - gate
}

// Samples is the total length of the rendered phrase including the tail.
func (ph Phrase) Samples(sampleRate int) int {
	n := int(ph.TailSec * float64(sampleRate))
	for _, step := range ph.Steps {
		gate, rest := ph.stepSamples(step, sampleRate)
		n += gate + rest
	}
	return n
}

// ----- Offline Render ----- //

// RenderPhrase powers the engine on, plays ph and writes the result to w as WAV.
// The engine must not be used by another render path at the same time.
func RenderPhrase(e *Engine, ph Phrase, w io.Writer) error {
	sampleRate := e.cfg.SampleRate
	wav := NewWAVWriter(w, sampleRate, e.cfg.ChannelNum)
	if err := wav.WriteHeader(ph.Samples(sampleRate) * e.cfg.bytesPerSample()); err != nil {
		return err
	}
	buf := make([]float64, e.cfg.BlockSize)
	render := func(n int) error {
		for n > 0 {
			size := len(buf)
			if size > n {
				size = n
			}
			e.Process(buf[:size])
			if err := wav.WriteSamples(buf[:size]); err != nil {
				return err
			}
			n -= size
		}
		return nil
	}
	e.PowerOn()
	for _, step := range ph.Steps {
		gate, rest := ph.stepSamples(step, sampleRate)
		for _, note := range step.Notes {
			e.NoteOn(note)
		}
		if err := render(gate); err != nil {
			return err
		}
		for _, note := range step.Notes {
			e.NoteOff(note)
		}
		if err := render(rest); err != nil {
			return err
		}
	}
	if err := render(int(ph.TailSec * float64(sampleRate))); err != nil {
		return err
	}
	e.PowerOff()
	return nil
}
