package audio

// ----- Transitive Value ----- //

// transitiveValue moves linearly from its current value to a target over a number of
// samples. It is used to smooth every live parameter on the render path.
type transitiveValue struct {
	duration     int // samples
	initialValue float64
	targetValue  float64
	value        float64
	pos          int
}

func newTransitiveValue(value float64) *transitiveValue {
	tv := &transitiveValue{}
	tv.init(value)
	return tv
}

// init jumps to value immediately.
func (tv *transitiveValue) init(value float64) {
	tv.duration = 0
	tv.initialValue = value
	tv.targetValue = value
	tv.value = value
	tv.pos = 0
}

// linear starts a ramp towards targetValue. Restarting a ramp begins from the current value.
func (tv *transitiveValue) linear(duration int, targetValue float64) {
	if targetValue == tv.targetValue && (tv.moving() || tv.value == targetValue) {
		return
	}
	if duration <= 0 {
		tv.init(targetValue)
		return
	}
	tv.duration = duration
	tv.pos = 0
	tv.initialValue = tv.value
	tv.targetValue = targetValue
}

func (tv *transitiveValue) moving() bool {
	return tv.duration > 0
}

// step advances one sample and returns the new value.
func (tv *transitiveValue) step() float64 {
	if tv.duration == 0 {
		return tv.value
	}
	tv.pos++
	if tv.pos >= tv.duration {
		tv.end()
		return tv.value
	}
	t := float64(tv.pos) / float64(tv.duration)
	tv.value = t*tv.targetValue + (1-t)*tv.initialValue
	return tv.value
}

// skip advances n samples at once.
func (tv *transitiveValue) skip(n int) float64 {
	if tv.duration == 0 || n <= 0 {
		return tv.value
	}
	tv.pos += n - 1
	return tv.step()
}

func (tv *transitiveValue) end() {
	tv.duration = 0
	tv.value = tv.targetValue
	tv.initialValue = tv.targetValue
	tv.pos = 0
}

func msToSamples(ms float64, sampleRate int) int {
	return int(ms * float64(sampleRate) / 1000)
}
