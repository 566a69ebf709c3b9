package score

import "math"

const (
	// DefaultStability is returned when a pitch sequence carries too little
	// evidence to penalize the singer.
	DefaultStability = 70

	// stabilityFloor is the minimum stability once a segment qualifies at
	// all; even unstable singing still counts as an attempt.
	stabilityFloor = 50
)

// Stability scores how little a pitch sequence wanders, in semitone terms,
// on a 0–100 scale. Zero deviation scores 100; heavily wandering pitch is
// clamped at the floor of 50.
//
// Sequences with fewer than 3 samples or fewer than 2 positive samples score
// [DefaultStability].
func Stability(pitches []float64) float64 {
	if len(pitches) < 3 {
		return DefaultStability
	}

	sum := 0.0
	positive := 0
	for _, p := range pitches {
		if p > 0 {
			sum += p
			positive++
		}
	}
	if positive < 2 {
		return DefaultStability
	}
	mean := sum / float64(positive)

	// Deviation from the mean in semitones, squared and averaged. Working in
	// semitones makes the penalty musical rather than absolute: a 10 Hz
	// wobble matters far more at 100 Hz than at 400 Hz.
	variance := 0.0
	for _, p := range pitches {
		if p <= 0 {
			continue
		}
		dev := 12 * math.Log2(p/mean)
		variance += dev * dev
	}
	variance /= float64(positive)

	s := 100 - variance*10
	if s < stabilityFloor {
		return stabilityFloor
	}
	if s > 100 {
		return 100
	}
	return s
}
