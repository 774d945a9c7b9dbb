package audio

import (
	"math"
	"testing"
)

func TestSpectrumTapOrder(t *testing.T) {
	tap := newSpectrumTap(4)
	tap.write([]float64{1, 2, 3})
	tap.write([]float64{4, 5})
	frame := <-tap.frames
	expected := []float64{2, 3, 4, 5}
	for i, v := range expected {
		expectEqual(t, frame[i], v)
	}
	tap.free <- frame
	// the render side never blocks, even when nobody reads
	for i := 0; i < 10; i++ {
		tap.write([]float64{float64(i)})
	}
	frame = <-tap.frames
	expectEqual(t, frame[3], 9.0)
}

func TestSpectrumAnalyzer(t *testing.T) {
	a, err := newSpectrumAnalyzer(1024)
	expectNoError(t, err)
	block := make([]float64, 1024)
	for i := range block {
		block[i] = math.Sin(2 * math.Pi * 64 * float64(i) / 1024)
	}
	a.tap.write(block)
	result, err := a.latest()
	expectNoError(t, err)
	expectEqual(t, len(result), 512)
	// a Hann window halves the peak of a bin-centered sine
	expectNearlyEqual(t, result[64], 0.5)
	if result[200] > 1e-6 {
		t.Errorf("expected no leakage, but got %v", result[200])
	}
}
