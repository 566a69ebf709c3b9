package score

import "math"

// Snapshot is one immutable published score state. It is recomputed on a
// fixed cadence during recording and once more at stop.
type Snapshot struct {
	// PitchAccuracy is the length-weighted mean segment stability, floored
	// at 50 once any singing was detected.
	PitchAccuracy int `json:"pitch_accuracy"`

	// Timing is the percentage of frames across the scored segments whose
	// pitch estimate is positive.
	Timing int `json:"timing"`

	// Total is the combined 0–100 score. The aggregator fills in the raw
	// value; the session controller replaces it with the smoothed one.
	Total int `json:"total"`
}

// Aggregate combines the closed segments, plus the open segment when it has
// reached minSegmentFrames, into a raw snapshot. No singing at all yields
// the zero snapshot, which is a valid outcome rather than an error.
func Aggregate(closed []Segment, open *Segment, minSegmentFrames int) Snapshot {
	working := closed
	if open != nil && open.Length() >= minSegmentFrames {
		o := *open
		o.Stability = Stability(o.Pitches)
		working = make([]Segment, 0, len(closed)+1)
		working = append(working, closed...)
		working = append(working, o)
	}
	if len(working) == 0 {
		return Snapshot{}
	}

	weighted := 0.0
	totalFrames := 0
	voicedFrames := 0
	for i := range working {
		seg := &working[i]
		n := seg.Length()
		weighted += seg.Stability * float64(n)
		totalFrames += n
		for _, p := range seg.Pitches {
			if p > 0 {
				voicedFrames++
			}
		}
	}

	accuracy := int(math.Round(weighted / float64(totalFrames)))
	if accuracy < 50 {
		accuracy = 50
	}
	timing := int(math.Round(100 * float64(voicedFrames) / float64(totalFrames)))
	total := int(math.Round(float64(accuracy+timing) / 2))

	return Snapshot{
		PitchAccuracy: accuracy,
		Timing:        timing,
		Total:         total,
	}
}
