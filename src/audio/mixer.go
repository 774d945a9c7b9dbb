package audio

import (
	"github.com/cwbudde/algo-vecmath"
)

const volumeRampMs = 10.0

// ----- Mixer ----- //

// mixer renders voices -> chorus -> master volume.
type mixer struct {
	voices      *polyVoices
	chorus      *chorus
	volume      *transitiveValue
	rampSamples int
}

func newMixer(voices *polyVoices, chorus *chorus, sampleRate int) *mixer {
	return &mixer{
		voices:      voices,
		chorus:      chorus,
		volume:      newTransitiveValue(0),
		rampSamples: msToSamples(volumeRampMs, sampleRate),
	}
}

// initParams jumps to p without ramps.
func (m *mixer) initParams(p *Params) {
	m.volume.init(p.volumeGain())
	m.chorus.mode = p.Chorus
	m.chorus.reset()
}

// applyParams forwards the live params to voices and effects.
func (m *mixer) applyParams(p *Params) {
	m.voices.applyParams(p)
	m.chorus.applyMode(p.Chorus)
	m.volume.linear(m.rampSamples, p.volumeGain())
}

func (m *mixer) process(out []float64) {
	m.voices.render(out)
	m.chorus.process(out)
	if m.volume.moving() {
		for i := range out {
			out[i] *= m.volume.step()
		}
		return
	}
	vecmath.ScaleBlock(out, out, m.volume.value)
}

// reset silences everything immediately.
func (m *mixer) reset() {
	m.voices.killAll()
	m.chorus.reset()
	m.volume.end()
}
