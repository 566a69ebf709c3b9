package score_test

import (
	"testing"

	"github.com/voxscore/voxscore/internal/score"
)

func TestSmooth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         int
		previous    int
		hasPrevious bool
		want        int
	}{
		{"no previous score passes through", 83, 0, false, 83},
		{"no previous zero passes through", 0, 0, false, 0},
		{"difference of five trusted", 70, 65, true, 70},
		{"large improvement trusted", 95, 60, true, 95},
		{"large decline trusted", 40, 80, true, 40},
		{"small improvement steps up", 68, 65, true, 70},
		{"small decline steps down", 62, 65, true, 60},
		{"equal stays put", 65, 65, true, 65},
		{"step up clamps at 100", 99, 98, true, 100},
		{"step down clamps at 0", 1, 3, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := score.Smooth(tt.raw, tt.previous, tt.hasPrevious); got != tt.want {
				t.Errorf("Smooth(%d, %d, %v) = %d, want %d",
					tt.raw, tt.previous, tt.hasPrevious, got, tt.want)
			}
		})
	}
}
