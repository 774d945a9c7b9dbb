package audio

import (
	"log"

	"github.com/cwbudde/algo-vecmath"
)

// ----- Poly Voices ----- //

// polyVoices allocates voices per Note. It is only touched by the render path.
type polyVoices struct {
	sampleRate int
	// pooled + active = maxPoly
	pooled []*voice
	active []*voice
	age    uint64
}

func newPolyVoices(wts *WavetableSet, c Config) *polyVoices {
	pooled := make([]*voice, c.MaxPoly)
	for i := range pooled {
		pooled[i] = newVoice(wts, c)
	}
	return &polyVoices{
		sampleRate: c.SampleRate,
		pooled:     pooled,
		active:     make([]*voice, 0, c.MaxPoly),
	}
}

func (pv *polyVoices) find(note Note) *voice {
	for _, v := range pv.active {
		if v.note == note {
			return v
		}
	}
	return nil
}

// noteOn starts a voice for note unless one is still alive for it, including one that
// is releasing. When the pool is empty the note is dropped.
func (pv *polyVoices) noteOn(p *Params, note Note) bool {
	if pv.find(note) != nil {
		return false
	}
	lenPooled := len(pv.pooled)
	if lenPooled == 0 {
		log.Printf("maxPoly exceeded, dropped %v\n", note)
		return false
	}
	v := pv.pooled[lenPooled-1]
	pv.pooled = pv.pooled[:lenPooled-1]
	pv.age++
	v.initWithNote(p, note, pv.sampleRate, pv.age)
	v.applyParams(p)
	pv.active = append(pv.active, v)
	return true
}

func (pv *polyVoices) noteOff(note Note) {
	if v := pv.find(note); v != nil {
		v.noteOff()
	}
}

func (pv *polyVoices) applyParams(p *Params) {
	for _, v := range pv.active {
		v.applyParams(p)
	}
}

// render sums every active voice into out and reclaims the voices whose release ended.
func (pv *polyVoices) render(out []float64) {
	for i := range out {
		out[i] = 0
	}
	n := len(out)
	for _, v := range pv.active {
		v.render(v.out[:n])
		vecmath.AddBlockInPlace(out, v.out[:n])
	}
	pv.reclaim()
}

func (pv *polyVoices) reclaim() {
	for j := len(pv.active) - 1; j >= 0; j-- {
		v := pv.active[j]
		if v.ended() {
			pv.active = append(pv.active[:j], pv.active[j+1:]...)
			pv.pooled = append(pv.pooled, v)
		}
	}
}

// killAll reclaims every voice without a release.
func (pv *polyVoices) killAll() {
	for _, v := range pv.active {
		v.kill()
		pv.pooled = append(pv.pooled, v)
	}
	pv.active = pv.active[:0]
}

func (pv *polyVoices) infos() []VoiceInfo {
	infos := make([]VoiceInfo, len(pv.active))
	for i, v := range pv.active {
		infos[i] = VoiceInfo{
			Note:  v.note,
			Freq:  v.freq,
			Phase: phaseName(v.adsr.phase),
			Level: v.adsr.value,
		}
	}
	return infos
}

// VoiceInfo is a snapshot of one live voice taken at the end of a render block.
type VoiceInfo struct {
	Note  Note
	Freq  float64
	Phase string
	Level float64
}
