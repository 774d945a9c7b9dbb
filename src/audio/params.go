package audio

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ----- Chorus Mode ----- //

// ChorusMode selects how many chorus taps are active.
type ChorusMode int

const (
	ChorusOff ChorusMode = iota
	ChorusI
	ChorusII
)

func (m ChorusMode) String() string {
	switch m {
	case ChorusI:
		return "i"
	case ChorusII:
		return "ii"
	}
	return "off"
}

// ParseChorusMode accepts "off", "i", "ii" in any case.
func ParseChorusMode(s string) (ChorusMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0":
		return ChorusOff, nil
	case "i", "1":
		return ChorusI, nil
	case "ii", "2":
		return ChorusII, nil
	}
	return ChorusOff, fmt.Errorf("%w: chorus mode %q", ErrInvalidValue, s)
}

// MarshalJSON ...
func (m ChorusMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON ...
func (m *ChorusMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, err := ParseChorusMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ----- Params ----- //

// Params is one complete parameter set. All percentages are in [0,100].
// A Params value handed to the engine is never modified afterwards.
type Params struct {
	PulseEnabled bool       `json:"pulseEnabled"`
	SawEnabled   bool       `json:"sawEnabled"`
	SubEnabled   bool       `json:"subEnabled"`
	PulseWidth   float64    `json:"pulseWidth"`
	SubLevel     float64    `json:"subLevel"`
	Cutoff       float64    `json:"cutoff"`
	Resonance    float64    `json:"resonance"`
	EnvAmount    float64    `json:"envAmount"`
	Attack       float64    `json:"attack"`
	Decay        float64    `json:"decay"`
	Sustain      float64    `json:"sustain"`
	Release      float64    `json:"release"`
	Chorus       ChorusMode `json:"chorus"`
	Volume       float64    `json:"volume"`

	version uint64
}

// DefaultParams ...
func DefaultParams() Params {
	return Params{
		PulseEnabled: true,
		SawEnabled:   true,
		SubEnabled:   false,
		PulseWidth:   50,
		SubLevel:     50,
		Cutoff:       70,
		Resonance:    10,
		EnvAmount:    0,
		Attack:       5,
		Decay:        30,
		Sustain:      70,
		Release:      20,
		Chorus:       ChorusOff,
		Volume:       70,
	}
}

// Version increases every time the engine publishes a new snapshot.
func (p Params) Version() uint64 {
	return p.version
}

// Clamped returns a copy with every field moved into its valid range.
func (p Params) Clamped() Params {
	p.PulseWidth = clampPercent(p.PulseWidth)
	p.SubLevel = clampPercent(p.SubLevel)
	p.Cutoff = clampPercent(p.Cutoff)
	p.Resonance = clampPercent(p.Resonance)
	p.EnvAmount = clampPercent(p.EnvAmount)
	p.Attack = clampPercent(p.Attack)
	p.Decay = clampPercent(p.Decay)
	p.Sustain = clampPercent(p.Sustain)
	p.Release = clampPercent(p.Release)
	p.Volume = clampPercent(p.Volume)
	if p.Chorus < ChorusOff || p.Chorus > ChorusII {
		p.Chorus = ChorusOff
	}
	return p
}

// set applies one named field. Numeric values are clamped, never rejected.
func (p *Params) set(key string, value string) error {
	switch key {
	case "pulseEnabled", "sawEnabled", "subEnabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
		}
		switch key {
		case "pulseEnabled":
			p.PulseEnabled = b
		case "sawEnabled":
			p.SawEnabled = b
		case "subEnabled":
			p.SubEnabled = b
		}
		return nil
	case "chorus", "chorusMode":
		mode, err := ParseChorusMode(value)
		if err != nil {
			return err
		}
		p.Chorus = mode
		return nil
	}
	field := p.percentField(key)
	if field == nil {
		return fmt.Errorf("%w: %q", ErrUnknownParam, key)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
	}
	*field = clampPercent(v)
	return nil
}

func (p *Params) percentField(key string) *float64 {
	switch key {
	case "pulseWidth":
		return &p.PulseWidth
	case "subLevel":
		return &p.SubLevel
	case "cutoff":
		return &p.Cutoff
	case "resonance":
		return &p.Resonance
	case "envAmount":
		return &p.EnvAmount
	case "attack":
		return &p.Attack
	case "decay":
		return &p.Decay
	case "sustain":
		return &p.Sustain
	case "release":
		return &p.Release
	case "volume":
		return &p.Volume
	}
	return nil
}

// applyJSON overlays the fields present in data on p. Absent keys keep their value.
// paramsAliases holds the alternative keys accepted by set and applyJSON.
type paramsAliases struct {
	ChorusMode *ChorusMode `json:"chorusMode"`
}

func (p *Params) applyJSON(data []byte) error {
	next := *p
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("failed to apply JSON to params: %w", err)
	}
	var aliases paramsAliases
	if err := json.Unmarshal(data, &aliases); err != nil {
		return fmt.Errorf("failed to apply JSON to params: %w", err)
	}
	if aliases.ChorusMode != nil {
		next.Chorus = *aliases.ChorusMode
	}
	next.version = p.version
	*p = next.Clamped()
	return nil
}

func (p *Params) toJSON() json.RawMessage {
	return toRawMessage(p)
}

// ----- Derived Values ----- //

const (
	envPeak          = 0.8
	maxAttackSec     = 2.0
	maxDecaySec      = 2.0
	maxReleaseSec    = 3.0
	maxCutoffHz      = 20000.0
	minCutoffHz      = 20.0
	maxResonanceQ    = 30.0
	minQ             = 0.5
	stableQ          = 18.0
	minDuty          = 0.02
	maxDuty          = 0.98
	envCutoffOctaves = 5.0
)

func (p *Params) attackSec() float64  { return p.Attack / 100 * maxAttackSec }
func (p *Params) decaySec() float64   { return p.Decay / 100 * maxDecaySec }
func (p *Params) releaseSec() float64 { return p.Release / 100 * maxReleaseSec }
func (p *Params) sustainLevel() float64 {
	return p.Sustain / 100
}

// cutoffHz is the unclamped filter frequency for the cutoff percentage.
func (p *Params) cutoffHz() float64 {
	return p.Cutoff / 100 * maxCutoffHz
}

// q is the unclamped filter Q for the resonance percentage.
func (p *Params) q() float64 {
	return p.Resonance / 100 * maxResonanceQ
}

func (p *Params) duty() float64 {
	return clamp(p.PulseWidth/100, minDuty, maxDuty)
}

func (p *Params) subGain() float64 {
	return p.SubLevel / 100
}

func (p *Params) volumeGain() float64 {
	return p.Volume / 100
}

// ----- Utility ----- //

func clamp(v, min, max float64) float64 {
	if v != v { // NaN
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampPercent(v float64) float64 {
	return clamp(v, 0, 100)
}

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}
