package audio

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParamsSet(t *testing.T) {
	p := DefaultParams()
	expectNoError(t, p.set("cutoff", "150"))
	expectEqual(t, p.Cutoff, 100.0)
	expectNoError(t, p.set("cutoff", "-3"))
	expectEqual(t, p.Cutoff, 0.0)
	expectNoError(t, p.set("resonance", "42.5"))
	expectEqual(t, p.Resonance, 42.5)
	expectNoError(t, p.set("sawEnabled", "false"))
	expectEqual(t, p.SawEnabled, false)
	expectNoError(t, p.set("chorus", "II"))
	expectEqual(t, p.Chorus, ChorusII)

	err := p.set("foo", "1")
	expectEqual(t, errors.Is(err, ErrUnknownParam), true)
	err = p.set("cutoff", "abc")
	expectEqual(t, errors.Is(err, ErrInvalidValue), true)
	err = p.set("subEnabled", "maybe")
	expectEqual(t, errors.Is(err, ErrInvalidValue), true)
	err = p.set("chorus", "iii")
	expectEqual(t, errors.Is(err, ErrInvalidValue), true)
}

func TestParamsJSON(t *testing.T) {
	p := DefaultParams()
	p.version = 7
	expectNoError(t, p.applyJSON([]byte(`{"cutoff": 20, "chorus": "i", "volume": 500}`)))
	expectEqual(t, p.Cutoff, 20.0)
	expectEqual(t, p.Chorus, ChorusI)
	expectEqual(t, p.Volume, 100.0)
	expectEqual(t, p.Attack, DefaultParams().Attack)
	expectEqual(t, p.Version(), uint64(7))

	if err := p.applyJSON([]byte(`{"cutoff": "x"}`)); err == nil {
		t.Errorf("expected an error")
	}
	expectEqual(t, p.Cutoff, 20.0)

	data := string(p.toJSON())
	if !strings.Contains(data, `"chorus":"i"`) {
		t.Errorf("unexpected JSON: %s", data)
	}
	var decoded Params
	expectNoError(t, json.Unmarshal([]byte(data), &decoded))
	expectEqual(t, decoded.Chorus, ChorusI)
	expectEqual(t, decoded.Cutoff, 20.0)
}

func TestChorusModeKeyIsAcceptedEverywhere(t *testing.T) {
	p := DefaultParams()
	expectNoError(t, p.set("chorusMode", "ii"))
	expectEqual(t, p.Chorus, ChorusII)
	expectNoError(t, p.applyJSON([]byte(`{"chorusMode": "i"}`)))
	expectEqual(t, p.Chorus, ChorusI)
	expectNoError(t, p.applyJSON([]byte(`{"chorus": "off"}`)))
	expectEqual(t, p.Chorus, ChorusOff)
	if err := p.applyJSON([]byte(`{"chorusMode": "iii"}`)); err == nil {
		t.Errorf("expected an error")
	}
	expectEqual(t, p.Chorus, ChorusOff)
}

func TestParamsDerived(t *testing.T) {
	p := DefaultParams()
	p.Attack = 100
	p.Decay = 50
	p.Release = 100
	p.Sustain = 25
	p.Cutoff = 50
	p.Resonance = 100
	p.PulseWidth = 0
	expectNearlyEqual(t, p.attackSec(), 2)
	expectNearlyEqual(t, p.decaySec(), 1)
	expectNearlyEqual(t, p.releaseSec(), 3)
	expectNearlyEqual(t, p.sustainLevel(), 0.25)
	expectNearlyEqual(t, p.cutoffHz(), 10000)
	expectNearlyEqual(t, p.q(), 30)
	expectNearlyEqual(t, p.duty(), minDuty)
}

func TestParseChorusMode(t *testing.T) {
	for s, expected := range map[string]ChorusMode{"off": ChorusOff, "I": ChorusI, "ii": ChorusII, "2": ChorusII} {
		mode, err := ParseChorusMode(s)
		expectNoError(t, err)
		expectEqual(t, mode, expected)
	}
	expectEqual(t, ChorusII.String(), "ii")
}
