package audio

import "github.com/cwbudde/algo-dsp/dsp/core"

// ----- Voice ----- //

const voiceGain = 0.25

// voice is one sounding note: oscillators -> filter -> envelope-controlled amplifier.
// It is owned by the render path from allocation until it is reclaimed.
type voice struct {
	note   Note
	freq   float64
	osc    *oscBank
	adsr   *adsr
	filter *filter
	out    []float64 // length: block size
	age    uint64
}

func newVoice(wts *WavetableSet, c Config) *voice {
	return &voice{
		osc:    newOscBank(wts, c.SampleRate),
		adsr:   &adsr{},
		filter: newFilter(c.SampleRate),
		out:    make([]float64, c.BlockSize),
	}
}

// initWithNote captures the per-note params and starts the attack. Notes outside the
// audible range play at the nearest frequency the oscillators can render.
func (v *voice) initWithNote(p *Params, note Note, sampleRate int, age uint64) {
	v.note = note
	v.freq = core.Clamp(note.Freq(), minCutoffHz, nyquistMargin*float64(sampleRate))
	v.age = age
	v.osc.initWithNote(p, v.freq)
	v.adsr.init(p, sampleRate)
	v.filter.initWithNote(p)
	v.adsr.noteOn()
}

// applyParams forwards the live params.
func (v *voice) applyParams(p *Params) {
	v.osc.applyParams(p)
	v.filter.applyParams(p)
}

func (v *voice) noteOff() {
	v.adsr.noteOff()
}

func (v *voice) kill() {
	v.adsr.reset()
}

func (v *voice) ended() bool {
	return v.adsr.ended()
}

// render writes len(out) samples. Once the envelope ends the rest is silence.
func (v *voice) render(out []float64) {
	for i := range out {
		if v.adsr.ended() {
			for j := i; j < len(out); j++ {
				out[j] = 0
			}
			return
		}
		env := v.adsr.step()
		value := v.osc.step() * voiceGain
		value = v.filter.step(value, env)
		out[i] = value * env
	}
}
