package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	algofft "github.com/MeKo-Christian/algo-fft"
)

const (
	numTables        = 128
	samplesPerTable  = 2048
	tableReferenceHz = 440.0
)

// ----- Wavetable ----- //

type wavetable struct {
	values []float64
}

func newWavetable(cap int) *wavetable {
	return &wavetable{
		values: make([]float64, 0, cap),
	}
}

// getAtPhase reads the table with linear interpolation. phase is in [0,1).
func (wt *wavetable) getAtPhase(phase float64) float64 {
	length := len(wt.values)
	pos := phase * float64(length)
	index := int(pos)
	if index >= length {
		index -= length
	}
	if index < 0 {
		index = 0
	}
	nextIndex := index + 1
	if nextIndex >= length {
		nextIndex = 0
	}
	frac := pos - math.Floor(pos)
	return wt.values[index]*(1-frac) + wt.values[nextIndex]*frac
}

// makeBandLimitedSaw fills the table with a rising sawtooth made of the first
// `partials` harmonics: -(2/pi) * sum(sin(2*pi*k*p)/k). The sum is synthesized by an
// inverse FFT and calibrated against a directly evaluated sample, so the result does not
// depend on the scaling convention of the transform.
func (wt *wavetable) makeBandLimitedSaw(plan *algofft.Plan[complex128], spectrum, frame []complex128, partials int) error {
	samples := len(spectrum)
	if samples > cap(wt.values) {
		return fmt.Errorf("capacity exceeded")
	}
	if partials > samples/2-1 {
		partials = samples/2 - 1
	}
	if partials < 1 {
		partials = 1
	}
	for i := range spectrum {
		spectrum[i] = 0
	}
	for k := 1; k <= partials; k++ {
		amp := 1 / (math.Pi * float64(k))
		spectrum[k] = complex(0, amp)
		spectrum[samples-k] = complex(0, -amp)
	}
	if err := plan.Inverse(frame, spectrum); err != nil {
		return fmt.Errorf("inverse FFT: %w", err)
	}
	probe := samples / 4
	direct := 0.0
	for k := 1; k <= partials; k++ {
		direct += math.Sin(2*math.Pi*float64(k)*float64(probe)/float64(samples)) / float64(k)
	}
	direct *= -2 / math.Pi
	scale := 1.0
	if r := real(frame[probe]); math.Abs(r) > 1e-12 {
		scale = direct / r
	}
	wt.values = wt.values[0:samples]
	for i := range wt.values {
		wt.values[i] = real(frame[i]) * scale
	}
	return nil
}

// ----- Wavetable Set ----- //

// WavetableSet holds one band-limited sawtooth per note-number band. The table for band n
// has as many partials as fit below Nyquist at the top frequency of that band.
type WavetableSet struct {
	sampleRate int
	tables     []*wavetable
}

// NewWavetableSet ...
func NewWavetableSet(tableCap int, sampleCap int) *WavetableSet {
	tables := make([]*wavetable, tableCap)
	for i := 0; i < tableCap; i++ {
		tables[i] = newWavetable(sampleCap)
	}
	return &WavetableSet{
		tables: tables,
	}
}

// MakeBandLimitedSawTables builds all tables for the given sample rate.
func (wts *WavetableSet) MakeBandLimitedSawTables(sampleRate int, samples int) error {
	if cap(wts.tables) < numTables {
		return fmt.Errorf("capacity of tables exceeded")
	}
	plan, err := algofft.NewPlan64(samples)
	if err != nil {
		return fmt.Errorf("failed to create FFT plan: %w", err)
	}
	spectrum := make([]complex128, samples)
	frame := make([]complex128, samples)
	wts.sampleRate = sampleRate
	wts.tables = wts.tables[0:numTables]
	for i := 0; i < numTables; i++ {
		partials := int(float64(sampleRate) / 2 / tableNoteToFreq(i))
		if err := wts.tables[i].makeBandLimitedSaw(plan, spectrum, frame, partials); err != nil {
			return err
		}
	}
	return nil
}

// SampleRate is the rate the tables were made for.
func (wts *WavetableSet) SampleRate() int {
	return wts.sampleRate
}

// tableFor picks the first band whose top frequency is at or above freq.
func (wts *WavetableSet) tableFor(freq float64) *wavetable {
	return wts.tables[freqToTableNote(freq, len(wts.tables))]
}

func tableNoteToFreq(note int) float64 {
	return tableReferenceHz * math.Pow(2, float64(note-69)/12)
}

func freqToTableNote(freq float64, n int) int {
	if freq <= 0 {
		return 0
	}
	note := int(math.Ceil(math.Log2(freq/tableReferenceHz)*12.0)) + 69
	if note < 0 {
		note = 0
	}
	if note >= n {
		note = n - 1
	}
	return note
}

// IO
//   all = { sample_rate int32, number_of_tables int32, tables []table }
//   table = { number_of_samples int32, samples []float64 }

// Save ...
func (wts *WavetableSet) Save(path string) (err error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	if err = binary.Write(file, binary.BigEndian, int32(wts.sampleRate)); err != nil {
		return err
	}
	if err = binary.Write(file, binary.BigEndian, int32(len(wts.tables))); err != nil {
		return err
	}
	for _, wt := range wts.tables {
		if err = binary.Write(file, binary.BigEndian, int32(len(wt.values))); err != nil {
			return err
		}
		if err = binary.Write(file, binary.BigEndian, wt.values); err != nil {
			return err
		}
	}
	return nil
}

// Load ...
func (wts *WavetableSet) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	var sampleRate int32
	if err := binary.Read(file, binary.BigEndian, &sampleRate); err != nil {
		return err
	}
	var numTables int32
	if err := binary.Read(file, binary.BigEndian, &numTables); err != nil {
		return err
	}
	if numTables <= 0 || int(numTables) > cap(wts.tables) {
		return fmt.Errorf("number of tables exceeded")
	}
	wts.sampleRate = int(sampleRate)
	wts.tables = wts.tables[0:numTables]
	for _, wt := range wts.tables {
		var numSamples int32
		if err := binary.Read(file, binary.BigEndian, &numSamples); err != nil {
			return err
		}
		if numSamples <= 0 || int(numSamples) > cap(wt.values) {
			return fmt.Errorf("number of samples exceeded")
		}
		wt.values = wt.values[0:numSamples]
		if err := binary.Read(file, binary.BigEndian, wt.values); err != nil {
			return err
		}
	}
	return nil
}

// loadOrMakeWavetableSet loads path when given and made for sampleRate, otherwise builds
// the tables in memory.
func loadOrMakeWavetableSet(path string, sampleRate int) (*WavetableSet, error) {
	wts := NewWavetableSet(numTables, samplesPerTable)
	if path != "" {
		if err := wts.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load wavetables %s: %w", path, err)
		}
		if wts.sampleRate != sampleRate {
			return nil, fmt.Errorf("%w: wavetables made for %d Hz, engine runs at %d Hz", ErrInvalidConfig, wts.sampleRate, sampleRate)
		}
		return wts, nil
	}
	if err := wts.MakeBandLimitedSawTables(sampleRate, samplesPerTable); err != nil {
		return nil, err
	}
	return wts, nil
}
