package audio

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
)

const (
	chorusRampMs    = 20.0
	chorusDepthMs   = 2.5
	chorusTapGain   = 0.4
	chorusDryWet    = 0.7
	chorusDryBypass = 1.0
)

var chorusTapDelayMs = [2]float64{16, 22}
var chorusTapRateHz = [2]float64{0.6, 0.8}

// ----- Chorus Tap ----- //

type chorusTap struct {
	baseDelay float64 // samples
	depth     float64 // samples
	lfo       phase
	lfoInc    float64 // cycles per sample
	gain      *transitiveValue
}

func (t *chorusTap) delaySamples() float64 {
	return t.baseDelay + t.depth*math.Sin(2*math.Pi*t.lfo.value)
}

// ----- Chorus ----- //

// chorus is a two-tap modulated delay. Both taps read the same line at their own
// LFO-modulated delay with Hermite interpolation. The line is fed in every mode so
// switching modes never reads stale history.
type chorus struct {
	line        *delay.Line
	taps        [2]chorusTap
	dry         *transitiveValue
	mode        ChorusMode
	rampSamples int
}

func newChorus(sampleRate int) (*chorus, error) {
	sr := float64(sampleRate)
	maxDelayMs := chorusTapDelayMs[1] + chorusDepthMs
	line, err := delay.New(int(math.Ceil(maxDelayMs*sr/1000)) + 4)
	if err != nil {
		return nil, err
	}
	c := &chorus{
		line:        line,
		dry:         newTransitiveValue(chorusDryBypass),
		rampSamples: msToSamples(chorusRampMs, sampleRate),
	}
	for i := range c.taps {
		c.taps[i] = chorusTap{
			baseDelay: chorusTapDelayMs[i] * sr / 1000,
			depth:     chorusDepthMs * sr / 1000,
			lfoInc:    chorusTapRateHz[i] / sr,
			gain:      newTransitiveValue(0),
		}
	}
	return c, nil
}

func chorusGains(mode ChorusMode) (dry float64, tap0 float64, tap1 float64) {
	switch mode {
	case ChorusI:
		return chorusDryWet, chorusTapGain, 0
	case ChorusII:
		return chorusDryWet, chorusTapGain, chorusTapGain
	}
	return chorusDryBypass, 0, 0
}

// applyMode crossfades to the gains of mode.
func (c *chorus) applyMode(mode ChorusMode) {
	c.mode = mode
	dry, tap0, tap1 := chorusGains(mode)
	c.dry.linear(c.rampSamples, dry)
	c.taps[0].gain.linear(c.rampSamples, tap0)
	c.taps[1].gain.linear(c.rampSamples, tap1)
}

func (c *chorus) step(in float64) float64 {
	c.line.Write(in)
	out := in * c.dry.step()
	for i := range c.taps {
		tap := &c.taps[i]
		gain := tap.gain.step()
		if gain != 0 {
			out += gain * c.line.ReadFractional(tap.delaySamples())
		}
		tap.lfo.advance(tap.lfoInc)
	}
	return out
}

func (c *chorus) process(buf []float64) {
	for i, v := range buf {
		buf[i] = c.step(v)
	}
}

// reset clears all history and jumps to the gains of the current mode.
func (c *chorus) reset() {
	c.line.Reset()
	dry, tap0, tap1 := chorusGains(c.mode)
	c.dry.init(dry)
	c.taps[0].gain.init(tap0)
	c.taps[1].gain.init(tap1)
	for i := range c.taps {
		c.taps[i].lfo.value = 0
	}
}
