package audio

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

const (
	filterRampMs  = 20.0
	nyquistMargin = 0.45
)

// ----- State Variable Filter ----- //

// svf is a trapezoidal (TPT) state-variable low-pass. Its integrator states stay
// bounded when the cutoff and Q change every sample. For fixed settings the response
// is the one of the RBJ low-pass biquad with the same cutoff and Q.
type svf struct {
	a1, a2, a3 float64
	ic1, ic2   float64
}

func (s *svf) setLowpass(freq float64, q float64, sampleRate float64) {
	g := math.Tan(math.Pi * freq / sampleRate)
	k := 1 / q
	s.a1 = 1 / (1 + g*(g+k))
	s.a2 = g * s.a1
	s.a3 = g * s.a2
}

func (s *svf) process(x float64) float64 {
	v3 := x - s.ic2
	v1 := s.a1*s.ic1 + s.a2*v3
	v2 := s.ic2 + s.a2*s.ic1 + s.a3*v3
	s.ic1 = core.FlushDenormals(2*v1 - s.ic1)
	s.ic2 = core.FlushDenormals(2*v2 - s.ic2)
	return v2
}

func (s *svf) reset() {
	s.ic1 = 0
	s.ic2 = 0
}

// ----- Filter ----- //

// filter is the resonant low-pass stage of one voice. Cutoff and resonance follow the
// global params through short ramps; envAmount is fixed per note. The cutoff ramps in
// octaves so a sweep spends the same time on every octave.
type filter struct {
	sampleRate float64
	maxFreq    float64
	octaves    *transitiveValue // log2 of the cutoff in Hz, before envelope modulation
	q          *transitiveValue
	envAmount  float64 // 0-1
	section    svf
	lastFreq   float64
	lastQ      float64
}

func newFilter(sampleRate int) *filter {
	return &filter{
		sampleRate: float64(sampleRate),
		maxFreq:    math.Min(maxCutoffHz, nyquistMargin*float64(sampleRate)),
		octaves:    newTransitiveValue(math.Log2(maxCutoffHz)),
		q:          newTransitiveValue(minQ),
	}
}

func cutoffOctaves(p *Params) float64 {
	return math.Log2(core.Clamp(p.cutoffHz(), minCutoffHz, maxCutoffHz))
}

func (f *filter) initWithNote(p *Params) {
	f.octaves.init(cutoffOctaves(p))
	f.q.init(p.q())
	f.envAmount = p.EnvAmount / 100
	f.section.reset()
	f.lastFreq = 0
	f.lastQ = 0
}

// applyParams starts ramps towards the live cutoff and resonance.
func (f *filter) applyParams(p *Params) {
	samples := msToSamples(filterRampMs, int(f.sampleRate))
	f.octaves.linear(samples, cutoffOctaves(p))
	f.q.linear(samples, p.q())
}

// cutoffHz is the ramped cutoff without envelope modulation.
func (f *filter) cutoffHz() float64 {
	return math.Exp2(f.octaves.value)
}

// effectiveFreq applies the envelope modulation and the stable range.
func (f *filter) effectiveFreq(env float64) float64 {
	octaves := f.octaves.value
	if f.envAmount > 0 {
		octaves += f.envAmount * envCutoffOctaves * env / envPeak
	}
	return core.Clamp(math.Exp2(octaves), minCutoffHz, f.maxFreq)
}

func (f *filter) effectiveQ() float64 {
	return core.Clamp(f.q.value, minQ, stableQ)
}

func (f *filter) updateCoefficients(env float64) {
	freq := f.effectiveFreq(env)
	q := f.effectiveQ()
	if freq == f.lastFreq && q == f.lastQ {
		return
	}
	f.section.setLowpass(freq, q, f.sampleRate)
	f.lastFreq = freq
	f.lastQ = q
}

// step filters one sample. env is the current envelope value of the voice.
func (f *filter) step(in float64, env float64) float64 {
	f.updateCoefficients(env)
	f.octaves.step()
	f.q.step()
	return f.section.process(in)
}

// response is the biquad equivalent of the current settings.
func (f *filter) response() biquad.Coefficients {
	return design.Lowpass(f.lastFreq, f.lastQ, f.sampleRate)
}

// magnitudeAt evaluates the gain of the current settings at freq Hz.
func (f *filter) magnitudeAt(freq float64) float64 {
	c := f.response()
	return cmplx.Abs(c.Response(freq, f.sampleRate))
}
