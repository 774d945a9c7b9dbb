package audio

import "math"

const subLevelRampMs = 5.0

// ----- Phase ----- //

// phase is a [0,1) accumulator. It only advances when stepped.
type phase struct {
	value float64
}

// advance moves by inc (cycles per sample) and reports whether a cycle boundary was crossed.
func (p *phase) advance(inc float64) bool {
	p.value += inc
	if p.value >= 1 {
		_, p.value = math.Modf(p.value)
		return true
	}
	return false
}

func shiftPhase(p float64, shift float64) float64 {
	_, f := math.Modf(p + shift)
	return f
}

// ----- OSC Bank ----- //

// oscBank sums the pulse, saw and sub generators of one voice.
//
// All accumulators start at 0 when a note starts. A disabled generator returns 0 and its
// accumulator stays frozen; enable flags are captured at note-on so this holds for the
// whole life of the voice.
type oscBank struct {
	wts        *WavetableSet
	sampleRate float64
	freq       float64

	pulseEnabled bool
	sawEnabled   bool
	subEnabled   bool

	pulsePhase phase
	sawPhase   phase
	subPhase   phase

	pulseTable *wavetable
	sawTable   *wavetable
	subTable   *wavetable

	duty     float64
	nextDuty float64
	subGain  *transitiveValue
}

func newOscBank(wts *WavetableSet, sampleRate int) *oscBank {
	return &oscBank{
		wts:        wts,
		sampleRate: float64(sampleRate),
		duty:       0.5,
		nextDuty:   0.5,
		subGain:    newTransitiveValue(0),
	}
}

func (o *oscBank) initWithNote(p *Params, freq float64) {
	o.freq = freq
	o.pulseEnabled = p.PulseEnabled
	o.sawEnabled = p.SawEnabled
	o.subEnabled = p.SubEnabled
	o.pulsePhase.value = 0
	o.sawPhase.value = 0
	o.subPhase.value = 0
	o.pulseTable = o.wts.tableFor(freq)
	o.sawTable = o.pulseTable
	o.subTable = o.wts.tableFor(freq / 2)
	o.duty = p.duty()
	o.nextDuty = o.duty
	o.subGain.init(p.subGain())
}

// applyParams takes the live oscillator fields: the pulse width is latched until the
// next pulse cycle starts and the sub level is ramped.
func (o *oscBank) applyParams(p *Params) {
	o.nextDuty = p.duty()
	o.subGain.linear(msToSamples(subLevelRampMs, int(o.sampleRate)), p.subGain())
}

func (o *oscBank) step() float64 {
	inc := o.freq / o.sampleRate
	value := 0.0
	if o.pulseEnabled {
		p := o.pulsePhase.value
		value += o.pulseTable.getAtPhase(p) - o.pulseTable.getAtPhase(shiftPhase(p, o.duty))
		if o.pulsePhase.advance(inc) {
			o.duty = o.nextDuty
		}
	}
	if o.sawEnabled {
		value += o.sawTable.getAtPhase(o.sawPhase.value)
		o.sawPhase.advance(inc)
	}
	gain := o.subGain.step()
	if o.subEnabled {
		p := o.subPhase.value
		value += (o.subTable.getAtPhase(p) - o.subTable.getAtPhase(shiftPhase(p, 0.5))) * gain
		o.subPhase.advance(inc / 2)
	}
	return value
}
