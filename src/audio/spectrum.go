package audio

import (
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// ----- Spectrum Tap ----- //

// spectrumTap keeps the latest fftSize output samples on the render path and hands
// copies to the control side through channels. Neither side waits for the other: when
// no free frame is available the render path simply skips publishing.
type spectrumTap struct {
	ring   []float64
	pos    int
	frames chan []float64
	free   chan []float64
}

func newSpectrumTap(size int) *spectrumTap {
	t := &spectrumTap{
		ring:   make([]float64, size),
		frames: make(chan []float64, 1),
		free:   make(chan []float64, 2),
	}
	t.free <- make([]float64, size)
	t.free <- make([]float64, size)
	return t
}

// write is called by the render path once per block.
func (t *spectrumTap) write(block []float64) {
	for _, v := range block {
		t.ring[t.pos] = v
		t.pos++
		if t.pos >= len(t.ring) {
			t.pos = 0
		}
	}
	var frame []float64
	select {
	case frame = <-t.free:
	default:
		return
	}
	// ring:  | 4 | 1 | 2 | 3 |
	// pos:       ^
	// frame: | 1 | 2 | 3 | 4 |
	n := copy(frame, t.ring[t.pos:])
	copy(frame[n:], t.ring[:t.pos])
	// replace a frame nobody took yet
	select {
	case stale := <-t.frames:
		t.free <- stale
	default:
	}
	select {
	case t.frames <- frame:
	default:
		t.free <- frame
	}
}

// ----- Spectrum Analyzer ----- //

type spectrumAnalyzer struct {
	sync.Mutex
	tap     *spectrumTap
	plan    *algofft.Plan[complex128]
	window  []float64
	in      []complex128
	out     []complex128
	re      []float64
	im      []float64
	result  []float64 // length: fftSize / 2
	scratch []float64
}

func newSpectrumAnalyzer(size int) (*spectrumAnalyzer, error) {
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create FFT plan: %w", err)
	}
	return &spectrumAnalyzer{
		tap:     newSpectrumTap(size),
		plan:    plan,
		window:  hanCoefficients(size),
		in:      make([]complex128, size),
		out:     make([]complex128, size),
		re:      make([]float64, size/2),
		im:      make([]float64, size/2),
		result:  make([]float64, size/2),
		scratch: make([]float64, size),
	}, nil
}

// latest returns the magnitude spectrum of the newest published frame, or nil when no
// frame has been published since the previous call.
func (a *spectrumAnalyzer) latest() ([]float64, error) {
	a.Lock()
	defer a.Unlock()
	var frame []float64
	select {
	case frame = <-a.tap.frames:
	default:
		return nil, nil
	}
	copy(a.scratch, frame)
	a.tap.free <- frame
	applyWindow(a.scratch, a.window)
	for i, v := range a.scratch {
		a.in[i] = complex(v, 0)
	}
	if err := a.plan.Forward(a.out, a.in); err != nil {
		return nil, fmt.Errorf("forward FFT: %w", err)
	}
	for i := range a.re {
		a.re[i] = real(a.out[i])
		a.im[i] = imag(a.out[i])
	}
	vecmath.Magnitude(a.result, a.re, a.im)
	n := float64(len(a.scratch))
	for i, value := range a.result {
		a.result[i] = value * 2 / n
	}
	result := make([]float64, len(a.result))
	copy(result, a.result)
	return result, nil
}
