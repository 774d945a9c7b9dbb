package audio

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func newTestWavetableSet(t *testing.T) *WavetableSet {
	t.Helper()
	wts := NewWavetableSet(numTables, samplesPerTable)
	if err := wts.MakeBandLimitedSawTables(48000, samplesPerTable); err != nil {
		t.Fatalf("failed to make wavetables: %v", err)
	}
	return wts
}

func TestBandLimitedSaw(t *testing.T) {
	wts := newTestWavetableSet(t)
	expectEqual(t, len(wts.tables), numTables)
	// rising saw: 2p - 1
	low := wts.tables[0]
	expectEqual(t, len(low.values), samplesPerTable)
	if math.Abs(low.getAtPhase(0.25)+0.5) > 0.01 {
		t.Errorf("expected -0.5, but got %v", low.getAtPhase(0.25))
	}
	if math.Abs(low.getAtPhase(0.75)-0.5) > 0.01 {
		t.Errorf("expected 0.5, but got %v", low.getAtPhase(0.75))
	}
	// only the fundamental fits below Nyquist
	high := wts.tables[numTables-1]
	expectNearlyEqual(t, high.getAtPhase(0.25), -2/math.Pi)
	expectNearlyEqual(t, high.getAtPhase(0.5), 0)
}

func TestWavetableZeroMean(t *testing.T) {
	wts := newTestWavetableSet(t)
	for _, i := range []int{0, 60, 100} {
		sum := 0.0
		for _, v := range wts.tables[i].values {
			sum += v
		}
		expectNearlyEqual(t, sum/samplesPerTable, 0)
	}
}

func TestFreqToTableNote(t *testing.T) {
	expectEqual(t, freqToTableNote(440, numTables), 69)
	expectEqual(t, freqToTableNote(441, numTables), 70)
	expectEqual(t, freqToTableNote(0, numTables), 0)
	expectEqual(t, freqToTableNote(1e6, numTables), numTables-1)
}

func TestWavetableSaveLoad(t *testing.T) {
	wts := newTestWavetableSet(t)
	path := filepath.Join(t.TempDir(), "saw.wt")
	expectNoError(t, wts.Save(path))

	loaded, err := loadOrMakeWavetableSet(path, 48000)
	expectNoError(t, err)
	expectEqual(t, loaded.SampleRate(), 48000)
	expectEqual(t, len(loaded.tables), numTables)
	expectEqual(t, loaded.tables[42].values[100], wts.tables[42].values[100])

	_, err = loadOrMakeWavetableSet(path, 44100)
	expectEqual(t, errors.Is(err, ErrInvalidConfig), true)
	_, err = loadOrMakeWavetableSet(filepath.Join(t.TempDir(), "missing.wt"), 48000)
	if err == nil {
		t.Errorf("expected an error")
	}
}
