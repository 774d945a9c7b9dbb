package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"sync/atomic"
)

const minPlayerBufferSize = 4096

// ----- Changes ----- //

// Changes records which reports became stale since they were last sent.
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

func newChanges() *Changes {
	return &Changes{dict: make(map[string]struct{})}
}

// Add ...
func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

// Has ...
func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

// Delete ...
func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- Render State ----- //

// renderState is everything only the render path touches.
type renderState struct {
	voices  *polyVoices
	chorus  *chorus
	mixer   *mixer
	params  *Params
	version uint64
	gen     uint64
	block   []float64 // length: block size
}

func newRenderState(wts *WavetableSet, c Config, p *Params) (*renderState, error) {
	voices := newPolyVoices(wts, c)
	ch, err := newChorus(c.SampleRate)
	if err != nil {
		return nil, err
	}
	m := newMixer(voices, ch, c.SampleRate)
	m.initParams(p)
	return &renderState{
		voices:  voices,
		chorus:  ch,
		mixer:   m,
		params:  p,
		version: p.version,
		block:   make([]float64, c.BlockSize),
	}, nil
}

// ----- Engine ----- //

// Engine is a polyphonic synthesizer. Control methods (PowerOn, NoteOn, SetParam, ...)
// may be called from any goroutine. Process and Read form the render path and must be
// called from one goroutine at a time; they never wait for the control side.
type Engine struct {
	cfg      Config
	wts      *WavetableSet
	params   atomic.Pointer[Params]
	paramsMu sync.Mutex
	queue    *eventQueue
	powered  atomic.Bool
	gen      atomic.Uint64
	stopped  atomic.Bool
	render   *renderState
	analyzer *spectrumAnalyzer
	Changes  *Changes

	activeVoices    atomic.Int32
	voicesRequested atomic.Bool
	voiceInfos      atomic.Pointer[[]VoiceInfo]
}

var _ io.Reader = (*Engine)(nil)

// NewEngine builds an engine that starts powered off with DefaultParams.
func NewEngine(c Config) (*Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	wts, err := loadOrMakeWavetableSet(c.WavetablePath, c.SampleRate)
	if err != nil {
		return nil, err
	}
	analyzer, err := newSpectrumAnalyzer(fftSize)
	if err != nil {
		return nil, err
	}
	p := DefaultParams()
	e := &Engine{
		cfg:      c,
		wts:      wts,
		queue:    newEventQueue(eventQueueSize),
		analyzer: analyzer,
		Changes:  newChanges(),
	}
	e.params.Store(&p)
	e.render, err = newRenderState(wts, c, &p)
	if err != nil {
		return nil, err
	}
	empty := []VoiceInfo{}
	e.voiceInfos.Store(&empty)
	return e, nil
}

// Config ...
func (e *Engine) Config() Config {
	return e.cfg
}

// ----- Power ----- //

// PowerOn starts accepting notes. It does nothing when already powered.
func (e *Engine) PowerOn() {
	if e.powered.Load() {
		return
	}
	e.gen.Add(1)
	e.powered.Store(true)
	e.Changes.Add("power")
	log.Println("power on")
}

// PowerOff silences every voice at the next block and discards pending notes.
func (e *Engine) PowerOff() {
	if !e.powered.Load() {
		return
	}
	e.powered.Store(false)
	e.gen.Add(1)
	e.Changes.Add("power")
	log.Println("power off")
}

// IsPowered ...
func (e *Engine) IsPowered() bool {
	return e.powered.Load()
}

// ----- Notes ----- //

// NoteOn requests a voice for note. It is ignored while powered off.
func (e *Engine) NoteOn(note Note) {
	e.pushNote(eventNoteOn, note)
}

// NoteOff releases the voice of note. It is ignored while powered off.
func (e *Engine) NoteOff(note Note) {
	e.pushNote(eventNoteOff, note)
}

func (e *Engine) pushNote(kind int, note Note) {
	gen := e.gen.Load()
	if !e.powered.Load() {
		return
	}
	if !e.queue.push(noteEvent{kind: kind, note: note, gen: gen}) {
		log.Printf("[WARN] event queue is full, dropped %v\n", note)
	}
}

// ----- Params ----- //

// Params returns the latest published parameter set.
func (e *Engine) Params() Params {
	return *e.params.Load()
}

// UpdateParams replaces the whole parameter set. Out-of-range values are clamped.
func (e *Engine) UpdateParams(p Params) {
	e.modifyParams(func(next *Params) error {
		*next = p.Clamped()
		return nil
	})
}

// SetParam changes one named parameter, e.g. ("cutoff", "40").
func (e *Engine) SetParam(name string, value string) error {
	return e.modifyParams(func(next *Params) error {
		return next.set(name, value)
	})
}

// ApplyParamsJSON overlays the keys present in data on the current params.
func (e *Engine) ApplyParamsJSON(data []byte) error {
	return e.modifyParams(func(next *Params) error {
		return next.applyJSON(data)
	})
}

// ParamsJSON ...
func (e *Engine) ParamsJSON() []byte {
	bytes, err := json.Marshal(e.params.Load())
	if err != nil {
		panic(err)
	}
	return bytes
}

// modifyParams publishes a modified copy of the current params. The published value is
// never written again, so the render path can read it without locking.
func (e *Engine) modifyParams(f func(next *Params) error) error {
	e.paramsMu.Lock()
	defer e.paramsMu.Unlock()
	current := e.params.Load()
	next := *current
	if err := f(&next); err != nil {
		return err
	}
	next.version = current.version + 1
	e.params.Store(&next)
	e.Changes.Add("params")
	e.Changes.Add("filter-shape")
	return nil
}

// ----- Render ----- //

// Process renders len(out) mono samples. Events are applied at block boundaries.
func (e *Engine) Process(out []float64) {
	size := e.cfg.BlockSize
	for len(out) > 0 {
		n := size
		if n > len(out) {
			n = len(out)
		}
		e.renderBlock(out[:n])
		out = out[n:]
	}
}

func (e *Engine) renderBlock(out []float64) {
	r := e.render
	p := e.params.Load()
	gen := e.gen.Load()
	if gen != r.gen {
		r.gen = gen
		r.mixer.reset()
		r.params = p
		r.version = p.version
		r.mixer.initParams(p)
	}
	if !e.powered.Load() {
		for {
			if _, ok := e.queue.pop(); !ok {
				break
			}
		}
		for i := range out {
			out[i] = 0
		}
		e.publish(out)
		return
	}
	if p.version != r.version {
		r.params = p
		r.version = p.version
		r.mixer.applyParams(p)
	}
	for {
		ev, ok := e.queue.pop()
		if !ok {
			break
		}
		if ev.gen != gen {
			continue
		}
		switch ev.kind {
		case eventNoteOn:
			r.voices.noteOn(r.params, ev.note)
		case eventNoteOff:
			r.voices.noteOff(ev.note)
		}
	}
	r.mixer.process(out)
	e.publish(out)
}

// publish hands the block to the reports. It never blocks.
func (e *Engine) publish(out []float64) {
	r := e.render
	e.analyzer.tap.write(out)
	e.activeVoices.Store(int32(len(r.voices.active)))
	if e.voicesRequested.CompareAndSwap(true, false) {
		infos := r.voices.infos()
		e.voiceInfos.Store(&infos)
	}
}

// Read renders PCM16LE frames for an audio sink. Every channel carries the same signal.
func (e *Engine) Read(buf []byte) (int, error) {
	if e.stopped.Load() {
		log.Println("Read() interrupted.")
		return 0, io.EOF
	}
	bytesPerSample := e.cfg.bytesPerSample()
	samples := len(buf) / bytesPerSample
	block := e.render.block
	written := 0
	for written < samples {
		n := len(block)
		if n > samples-written {
			n = samples - written
		}
		e.renderBlock(block[:n])
		writeBuffer(block[:n], buf[written*bytesPerSample:], e.cfg.ChannelNum)
		written += n
	}
	return samples * bytesPerSample, nil
}

// Start streams audio into w until ctx is cancelled or the engine is closed.
func (e *Engine) Start(ctx context.Context, w io.Writer) error {
	stop := context.AfterFunc(ctx, func() {
		e.stopped.Store(true)
	})
	defer stop()

	// block until cancel() called
	if _, err := io.CopyBuffer(w, e, make([]byte, e.playerBufferSize())); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

func (e *Engine) playerBufferSize() int {
	size := e.cfg.BlockSize * e.cfg.bytesPerSample()
	for size < minPlayerBufferSize {
		size *= 2
	}
	return size
}

// PlayerBufferSize is the size in bytes Start uses per write.
func (e *Engine) PlayerBufferSize() int {
	return e.playerBufferSize()
}

// Close makes further reads return io.EOF.
func (e *Engine) Close() error {
	log.Println("Closing Engine...")
	e.stopped.Store(true)
	return nil
}

// ----- Reports ----- //

// ActiveVoices is the number of allocated voices at the end of the last block.
func (e *Engine) ActiveVoices() int {
	return int(e.activeVoices.Load())
}

// Voices returns the voice snapshot of a recent block and asks for a new one.
func (e *Engine) Voices() []VoiceInfo {
	e.voicesRequested.Store(true)
	return *e.voiceInfos.Load()
}

// Spectrum returns the magnitude spectrum of the latest output, or nil when nothing
// new was rendered since the previous call.
func (e *Engine) Spectrum() ([]float64, error) {
	return e.analyzer.latest()
}

// FilterShape returns the filter gain at n log-spaced frequencies between the lowest
// cutoff and Nyquist, for the current params without envelope modulation.
func (e *Engine) FilterShape(n int) []float64 {
	if n <= 0 {
		return nil
	}
	p := e.params.Load()
	f := newFilter(e.cfg.SampleRate)
	f.initWithNote(p)
	f.updateCoefficients(0)
	nyquist := float64(e.cfg.SampleRate) / 2
	result := make([]float64, n)
	for i := range result {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		freq := minCutoffHz * math.Pow(nyquist/minCutoffHz, t)
		result[i] = f.magnitudeAt(freq)
	}
	return result
}

func (e *Engine) String() string {
	return fmt.Sprintf("Engine(rate=%d, block=%d, poly=%d)", e.cfg.SampleRate, e.cfg.BlockSize, e.cfg.MaxPoly)
}
