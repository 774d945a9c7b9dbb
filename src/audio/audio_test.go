package audio

import (
	"fmt"
	"io"
	"math"
	"testing"
	"time"
)

func expectNoError(t *testing.T, err error) {
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func expectEqual(t *testing.T, actual, expected interface{}) {
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNearlyEqual(t *testing.T, actual, expected float64) {
	if math.Abs(actual-expected) > 0.0001 {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func newTestEngine(t *testing.T, c Config) *Engine {
	t.Helper()
	e, err := NewEngine(c)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e
}

func peak(buf []float64) float64 {
	max := 0.0
	for _, v := range buf {
		if math.Abs(v) > max {
			max = math.Abs(v)
		}
	}
	return max
}

var a4 = NewNote(PitchA, 4)

func TestEngineStartsPoweredOff(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	expectEqual(t, e.IsPowered(), false)
	e.NoteOn(a4)
	out := make([]float64, 1024)
	e.Process(out)
	expectEqual(t, e.ActiveVoices(), 0)
	expectEqual(t, peak(out), 0.0)
}

func TestOneVoicePerNote(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	e.PowerOn()
	for i := 0; i < 10; i++ {
		e.NoteOn(a4)
		e.NoteOff(a4)
	}
	out := make([]float64, 256)
	e.Process(out)
	expectEqual(t, e.ActiveVoices(), 1)
	for i := 0; i < 10; i++ {
		e.NoteOn(a4)
		e.Process(out)
		e.NoteOff(a4)
		e.Process(out)
	}
	expectEqual(t, e.ActiveVoices(), 1)
}

func TestImmediateNoteOffReleases(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	p := e.Params()
	p.Attack = 0
	p.Release = 10 // 0.3s
	e.UpdateParams(p)
	e.PowerOn()
	out := make([]float64, 256)
	e.NoteOn(a4)
	e.Process(out)
	e.NoteOff(a4)
	e.Process(out)
	if peak(out) == 0 {
		t.Errorf("expected the release to be audible")
	}
	expectEqual(t, e.ActiveVoices(), 1)

	releaseSamples := int(0.3 * float64(e.cfg.SampleRate))
	e.Process(make([]float64, releaseSamples-1024))
	expectEqual(t, e.ActiveVoices(), 1)
	e.Process(make([]float64, 2048))
	expectEqual(t, e.ActiveVoices(), 0)
}

func TestReclaimWithoutRelease(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	p := e.Params()
	p.Attack = 0
	p.Decay = 0
	p.Sustain = 100
	p.Release = 0
	e.UpdateParams(p)
	e.PowerOn()
	out := make([]float64, 256)
	e.NoteOn(a4)
	e.Process(out)
	expectEqual(t, e.ActiveVoices(), 1)
	e.NoteOff(a4)
	e.Process(out)
	expectEqual(t, e.ActiveVoices(), 0)

	// the note can be played again once reclaimed
	e.NoteOn(a4)
	e.Process(out)
	expectEqual(t, e.ActiveVoices(), 1)
}

func TestPowerOffSilencesWithinOneBlock(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	e.PowerOn()
	for _, n := range []Note{NewNote(PitchC, 3), NewNote(PitchE, 3), NewNote(PitchG, 3)} {
		e.NoteOn(n)
	}
	out := make([]float64, e.cfg.BlockSize)
	for i := 0; i < 20; i++ {
		e.Process(out)
	}
	if peak(out) == 0 {
		t.Errorf("expected sound before power off")
	}
	expectEqual(t, e.ActiveVoices(), 3)
	e.PowerOff()
	e.Process(out)
	expectEqual(t, peak(out), 0.0)
	expectEqual(t, e.ActiveVoices(), 0)

	e.NoteOn(a4)
	e.Process(out)
	expectEqual(t, e.ActiveVoices(), 0)
}

func TestPowerOnDropsStaleEvents(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	e.PowerOn()
	e.NoteOn(a4)
	e.PowerOff()
	e.PowerOn()
	out := make([]float64, 256)
	e.Process(out)
	expectEqual(t, e.ActiveVoices(), 0)
}

func TestMaxPoly(t *testing.T) {
	c := DefaultConfig()
	c.MaxPoly = 2
	e := newTestEngine(t, c)
	e.PowerOn()
	e.NoteOn(NewNote(PitchC, 4))
	e.NoteOn(NewNote(PitchD, 4))
	e.NoteOn(NewNote(PitchE, 4))
	out := make([]float64, 256)
	e.Process(out)
	expectEqual(t, e.ActiveVoices(), 2)
	infos := e.Voices()
	expectEqual(t, len(infos), 0) // no snapshot requested yet
	e.Process(out)
	infos = e.Voices()
	expectEqual(t, len(infos), 2)
	for _, info := range infos {
		if info.Note == NewNote(PitchE, 4) {
			t.Errorf("expected E4 to be dropped")
		}
		expectEqual(t, info.Phase, "attack")
	}
}

func TestVolumeIsLive(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	e.PowerOn()
	e.NoteOn(a4)
	out := make([]float64, 256)
	e.Process(out)
	expectNoError(t, e.SetParam("volume", "0"))
	e.Process(make([]float64, 1024))
	e.Process(out)
	expectEqual(t, peak(out), 0.0)
	expectEqual(t, e.ActiveVoices(), 1)
}

func TestParamsVersion(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	v := e.Params().Version()
	expectNoError(t, e.SetParam("cutoff", "30"))
	expectEqual(t, e.Params().Version(), v+1)
	if err := e.SetParam("unknown", "30"); err == nil {
		t.Errorf("expected an error")
	}
	expectEqual(t, e.Params().Version(), v+1)
	expectEqual(t, e.Changes.Has("params"), true)
}

func TestRead(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	e.PowerOn()
	e.NoteOn(a4)
	buf := make([]byte, 1000)
	n, err := e.Read(buf)
	expectNoError(t, err)
	expectEqual(t, n, 1000)
	// both channels carry the same sample
	for i := 0; i < len(buf); i += 4 {
		if buf[i] != buf[i+2] || buf[i+1] != buf[i+3] {
			t.Fatalf("channels differ at %d", i)
		}
	}
	expectNoError(t, e.Close())
	_, err = e.Read(buf)
	expectEqual(t, err, io.EOF)
}

func TestSpectrum(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	result, err := e.Spectrum()
	expectNoError(t, err)
	if result != nil {
		t.Errorf("expected no spectrum before rendering")
	}
	e.PowerOn()
	e.NoteOn(a4)
	e.Process(make([]float64, fftSize))
	result, err = e.Spectrum()
	expectNoError(t, err)
	expectEqual(t, len(result), fftSize/2)
	// 880 Hz falls into bin 880 / (48000 / 2048)
	bin := int(math.Round(880 / (float64(e.cfg.SampleRate) / fftSize)))
	maxBin := 0
	for i, v := range result {
		if v > result[maxBin] {
			maxBin = i
		}
	}
	if maxBin < bin-1 || maxBin > bin+1 {
		t.Errorf("expected a peak around bin %d, but got %d", bin, maxBin)
	}
	result, err = e.Spectrum()
	expectNoError(t, err)
	if result != nil {
		t.Errorf("expected no new spectrum")
	}
}

func TestFilterShape(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	expectNoError(t, e.SetParam("resonance", "0"))
	expectNoError(t, e.SetParam("cutoff", "10")) // 2000Hz
	shape := e.FilterShape(64)
	expectEqual(t, len(shape), 64)
	if math.Abs(shape[0]-1) > 0.01 {
		t.Errorf("expected unity gain at low frequency, but got %v", shape[0])
	}
	if shape[63] > 0.01 {
		t.Errorf("expected attenuation near Nyquist, but got %v", shape[63])
	}
}

// processPeak renders seconds of audio and returns the peak and the RMS of the last block.
func processPeak(e *Engine, seconds float64) (float64, float64) {
	out := make([]float64, e.cfg.BlockSize)
	max := 0.0
	for n := int(seconds * float64(e.cfg.SampleRate)); n > 0; n -= len(out) {
		e.Process(out)
		max = math.Max(max, peak(out))
	}
	return max, rms(out)
}

// A fast sweep passes every harmonic before the resonance builds up, so the output
// stays at the level of the dry note.
func TestCutoffSweepStaysBounded(t *testing.T) {
	for _, resonance := range []float64{10, 50, 100} {
		for _, steps := range []int{1, 4} {
			e := newTestEngine(t, DefaultConfig())
			p := e.Params()
			p.Attack = 0
			p.Sustain = 100
			p.Cutoff = 100
			p.Resonance = resonance
			e.UpdateParams(p)
			e.PowerOn()
			e.NoteOn(a4)
			processPeak(e, 0.1)

			sweep := func(from, to float64) float64 {
				max := 0.0
				for i := 1; i <= steps; i++ {
					value := from + (to-from)*float64(i)/float64(steps)
					expectNoError(t, e.SetParam("cutoff", fmt.Sprint(value)))
					m, _ := processPeak(e, 0.005)
					max = math.Max(max, m)
				}
				return max
			}

			down := sweep(100, 0)
			m, _ := processPeak(e, 1.5)
			down = math.Max(down, m)
			_, tail := processPeak(e, 0.25)
			if math.IsNaN(down) || down > 1 {
				t.Errorf("resonance %v, %d steps: peak %v while closing", resonance, steps, down)
			}
			if math.IsNaN(tail) || tail > 0.01 {
				t.Errorf("resonance %v, %d steps: expected near silence, but got rms %v", resonance, steps, tail)
			}

			up := sweep(0, 100)
			m, tail = processPeak(e, 0.25)
			up = math.Max(up, m)
			if math.IsNaN(up) || up > 1 {
				t.Errorf("resonance %v, %d steps: peak %v while opening", resonance, steps, up)
			}
			if tail < 0.01 {
				t.Errorf("resonance %v, %d steps: expected the note back, but got rms %v", resonance, steps, tail)
			}
		}
	}
}

func TestExtremeNotesStayFinite(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	expectNoError(t, e.SetParam("chorus", "ii"))
	e.PowerOn()
	high := NewNote(PitchA, 2000)
	low := NewNote(PitchC, -2000)
	e.NoteOn(high)
	e.NoteOn(low)
	out := make([]float64, 4800)
	e.Process(out)
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("expected finite output, but got %v at %d", v, i)
		}
	}
	expectEqual(t, e.ActiveVoices(), 2)
	e.Voices()
	e.Process(out)
	infos := e.Voices()
	expectEqual(t, len(infos), 2)
	for _, info := range infos {
		if info.Freq > nyquistMargin*float64(e.cfg.SampleRate) || info.Freq < minCutoffHz {
			t.Errorf("expected a playable frequency, but got %v", info.Freq)
		}
	}

	// the engine keeps working after the extreme notes
	e.NoteOff(high)
	e.NoteOff(low)
	processPeak(e, 1)
	expectEqual(t, e.ActiveVoices(), 0)
	e.NoteOn(a4)
	max, level := processPeak(e, 0.5)
	if math.IsNaN(max) || max > 1 || level == 0 {
		t.Errorf("expected a clean note, but got peak %v, rms %v", max, level)
	}
}

func TestInvalidConfig(t *testing.T) {
	c := DefaultConfig()
	c.BlockSize = 0
	_, err := NewEngine(c)
	if err == nil {
		t.Errorf("expected an error")
	}
}

func TestBenchmark(t *testing.T) {
	polyphony := 10
	times := 1000

	e := newTestEngine(t, DefaultConfig())
	defer func() {
		expectNoError(t, e.Close())
	}()
	expectNoError(t, e.Update([]string{"power", "on"}))
	expectNoError(t, e.Update([]string{"set", "subEnabled", "true"}))
	expectNoError(t, e.Update([]string{"set", "envAmount", "50"}))
	expectNoError(t, e.Update([]string{"set", "chorus", "ii"}))
	out := make([]float64, e.cfg.BlockSize)
	e.Process(out)
	for n := 0; n < polyphony; n++ {
		e.NoteOn(NewNote(PitchClass(n%12), 3+n/12))
	}
	start := time.Now()
	for n := 0; n < times; n++ {
		e.Process(out)
	}
	elapsed := time.Since(start)
	averageProcessTime := float64(elapsed.Microseconds()) / float64(times) / 1000
	fmt.Printf("average process time: %.3fms\n", averageProcessTime)
}
