package audio

// Frame is a single analysis window of audio. A frame is captured from an
// input device, validated, handed to the pitch estimator exactly once, and
// never stored beyond that analysis step.
type Frame struct {
	// Samples is mono PCM in [-1.0, 1.0]. The slice is owned by the producer
	// and must not be retained after the frame has been processed.
	Samples []float64

	// SampleRate in Hz (e.g., 44100 for microphone capture).
	SampleRate int

	// Index is the zero-based position of this frame within the capture
	// session. Consumers rely on indices being strictly increasing.
	Index int
}

// WellFormed reports whether the frame can be analyzed. Malformed frames
// (empty window, nonsensical rate) are treated as silence by consumers
// rather than propagated as errors, so one bad frame cannot abort a live
// performance.
func (f Frame) WellFormed() bool {
	return len(f.Samples) > 0 && f.SampleRate > 0
}
