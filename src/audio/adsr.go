package audio

// ----- ADSR Phase ----- //

const (
	phaseNone = iota
	phaseAttack
	phaseDecay
	phaseSustain
	phaseRelease
)

var phaseNames = [...]string{"idle", "attack", "decay", "sustain", "release"}

func phaseName(phase int) string {
	if phase < 0 || phase >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[phase]
}

// ----- ADSR ----- //

/*
  p +     x
    |    / \
    |   /   \
  s +  /     x------x
    | /              \
    |/                \
  0 +-----+--+------+---
    |a    |d |      |r |

  every segment is a straight line. p is fixed at envPeak and s = sustain * p.
  release always starts from the value reached at note-off.
*/
type adsr struct {
	attack         int // samples
	decay          int // samples
	release        int // samples
	sustain        float64
	peak           float64
	value          float64
	phase          int
	phasePos       int
	valueAtNoteOn  float64
	valueAtNoteOff float64
}

// init captures the envelope times of p. They stay fixed until the next init.
func (a *adsr) init(p *Params, sampleRate int) {
	a.attack = int(p.attackSec() * float64(sampleRate))
	a.decay = int(p.decaySec() * float64(sampleRate))
	a.release = int(p.releaseSec() * float64(sampleRate))
	a.peak = envPeak
	a.sustain = p.sustainLevel() * envPeak
	a.value = 0
	a.phase = phaseNone
	a.phasePos = 0
	a.valueAtNoteOn = 0
	a.valueAtNoteOff = 0
}

func (a *adsr) noteOn() {
	a.phase = phaseAttack
	a.phasePos = 0
	a.valueAtNoteOn = a.value
}

func (a *adsr) noteOff() {
	if a.phase == phaseNone || a.phase == phaseRelease {
		return
	}
	a.phase = phaseRelease
	a.phasePos = 0
	a.valueAtNoteOff = a.value
}

// reset stops immediately without a release.
func (a *adsr) reset() {
	a.value = 0
	a.phase = phaseNone
	a.phasePos = 0
}

func (a *adsr) ended() bool {
	return a.phase == phaseNone
}

func (a *adsr) step() float64 {
	switch a.phase {
	case phaseAttack:
		if a.phasePos >= a.attack {
			a.phase = phaseDecay
			a.phasePos = 0
			a.value = a.peak
		} else {
			t := float64(a.phasePos) / float64(a.attack)
			a.value = t*a.peak + (1-t)*a.valueAtNoteOn
			a.phasePos++
		}
	case phaseDecay:
		if a.phasePos >= a.decay {
			a.phase = phaseSustain
			a.phasePos = 0
			a.value = a.sustain
		} else {
			t := float64(a.phasePos) / float64(a.decay)
			a.value = t*a.sustain + (1-t)*a.peak
			a.phasePos++
		}
	case phaseSustain:
		a.value = a.sustain
	case phaseRelease:
		if a.phasePos >= a.release {
			a.phase = phaseNone
			a.phasePos = 0
			a.value = 0
		} else {
			t := float64(a.phasePos) / float64(a.release)
			a.value = (1 - t) * a.valueAtNoteOff
			a.phasePos++
		}
	default:
		a.value = 0
	}
	return a.value
}
