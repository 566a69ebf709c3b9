package dsp

// calibrationHeadroom scales the loudest ambient frame so room noise sits
// safely below the gate.
const calibrationHeadroom = 1.5

// Calibrate derives a noise gate from ambient-room sample frames captured
// before a session. The gate is the loudest ambient RMS with headroom
// applied, and never drops below [DefaultNoiseFloor]. Pass the result to
// [WithNoiseFloor].
func Calibrate(frames [][]float64) float64 {
	var loudest float64
	for _, frame := range frames {
		if r := RMS(frame); r > loudest {
			loudest = r
		}
	}
	gate := loudest * calibrationHeadroom
	if gate < DefaultNoiseFloor {
		return DefaultNoiseFloor
	}
	return gate
}
