package score_test

import (
	"math"
	"testing"

	"github.com/voxscore/voxscore/internal/score"
)

func TestStability_InsufficientEvidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pitches []float64
	}{
		{"empty", nil},
		{"one sample", []float64{220}},
		{"two samples", []float64{220, 220}},
		{"three samples one positive", []float64{220, 0, 0}},
	}
	for _, tt := range tests {
		if got := score.Stability(tt.pitches); got != score.DefaultStability {
			t.Errorf("%s: stability = %v, want %v", tt.name, got, score.DefaultStability)
		}
	}
}

func TestStability_SteadyPitchIsPerfect(t *testing.T) {
	t.Parallel()

	for _, hz := range []float64{100, 220, 440} {
		if got := score.Stability([]float64{hz, hz, hz, hz}); got != 100 {
			t.Errorf("steady %v Hz: stability = %v, want 100", hz, got)
		}
	}
}

func TestStability_WideAlternationFloors(t *testing.T) {
	t.Parallel()

	// Alternating five semitones apart wanders far enough to hit the floor.
	low := 220.0
	high := low * math.Pow(2, 5.0/12)
	pitches := []float64{low, high, low, high, low, high}
	if got := score.Stability(pitches); got != 50 {
		t.Errorf("alternating 5 semitones: stability = %v, want 50 (floor)", got)
	}
}

func TestStability_MildVibratoScoresBetween(t *testing.T) {
	t.Parallel()

	// Half a semitone of alternation: musical vibrato, penalized but far
	// from the floor.
	low := 220.0
	high := low * math.Pow(2, 0.5/12)
	pitches := []float64{low, high, low, high, low, high}
	got := score.Stability(pitches)
	if got <= 90 || got >= 100 {
		t.Errorf("mild vibrato: stability = %v, want in (90, 100)", got)
	}
}

func TestStability_NeverExceedsBounds(t *testing.T) {
	t.Parallel()

	cases := [][]float64{
		{85, 500, 85, 500},
		{100, 101, 99, 100},
		{440, 440, 440},
	}
	for _, pitches := range cases {
		got := score.Stability(pitches)
		if got < 50 || got > 100 {
			t.Errorf("stability(%v) = %v, out of [50, 100]", pitches, got)
		}
	}
}
