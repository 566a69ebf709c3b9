package score

// SmoothStep is the maximum per-session movement of the displayed total
// score relative to the previous session's score.
const SmoothStep = 5

// Smooth bounds raw against the previous session's persisted score to damp
// jitter between near-identical performances. When no previous score exists
// (hasPrevious false) raw passes through untouched. Differences of at least
// [SmoothStep] are trusted as genuine improvement or decline; smaller ones
// still move the result by the fixed step so every session visibly counts.
func Smooth(raw, previous int, hasPrevious bool) int {
	if !hasPrevious {
		return raw
	}
	diff := raw - previous
	switch {
	case diff >= SmoothStep || diff <= -SmoothStep:
		return raw
	case diff > 0:
		return min(100, previous+SmoothStep)
	case diff < 0:
		return max(0, previous-SmoothStep)
	default:
		return previous
	}
}
