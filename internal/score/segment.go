// Package score turns a stream of per-frame pitch estimates into the running
// performance score of one karaoke session: segmentation into sung phrases,
// per-phrase pitch stability, aggregation into a snapshot, and cross-session
// smoothing.
package score

// Segmentation tuning at the ~60 Hz frame cadence.
const (
	// DefaultSilenceRunFrames is the consecutive-silence run (≈250 ms) that
	// closes an open segment. Requiring a run rather than a single silent
	// frame tolerates breaths and plosives inside sustained singing.
	DefaultSilenceRunFrames = 15

	// DefaultMinSegmentFrames is the minimum voiced length (≈166 ms) for a
	// segment to be retained. Shorter blips are coughs or consonant noise.
	DefaultMinSegmentFrames = 10
)

// Segment is a maximal run of frames classified as continuous singing.
// Pitches holds one Hz value per voiced frame and never contains a zero
// entry; its length is the segment length.
type Segment struct {
	// StartFrame is the index of the first voiced frame.
	StartFrame int

	// EndFrame is the index of the last voiced frame.
	EndFrame int

	// Pitches is the ordered sequence of per-frame Hz estimates, all > 0.
	Pitches []float64

	// Stability is the 0–100 intra-segment consistency score, computed when
	// the segment is closed.
	Stability float64
}

// Length returns the segment length in voiced frames.
func (s *Segment) Length() int { return len(s.Pitches) }

// Segmenter groups per-frame pitch estimates into [Segment] values via
// silence-run detection. It is a two-state machine: either no segment is
// open, or one is open and accumulating voiced frames.
//
// Segmenter is owned by a single session and is not safe for concurrent use;
// estimates must arrive in strict frame-index order.
type Segmenter struct {
	silenceRunFrames int
	minSegmentFrames int

	open       *Segment
	silenceRun int
	closed     []Segment
}

// SegmenterOption configures a [Segmenter].
type SegmenterOption func(*Segmenter)

// WithSilenceRun overrides the silence run length that closes a segment.
func WithSilenceRun(frames int) SegmenterOption {
	return func(g *Segmenter) {
		if frames > 0 {
			g.silenceRunFrames = frames
		}
	}
}

// WithMinSegmentLength overrides the minimum retained segment length.
func WithMinSegmentLength(frames int) SegmenterOption {
	return func(g *Segmenter) {
		if frames > 0 {
			g.minSegmentFrames = frames
		}
	}
}

// NewSegmenter creates a segmenter with the default tuning, modified by opts.
func NewSegmenter(opts ...SegmenterOption) *Segmenter {
	g := &Segmenter{
		silenceRunFrames: DefaultSilenceRunFrames,
		minSegmentFrames: DefaultMinSegmentFrames,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// MinSegmentFrames returns the minimum retained segment length in frames.
func (g *Segmenter) MinSegmentFrames() int { return g.minSegmentFrames }

// Observe advances the state machine with one frame's pitch estimate.
// pitch == 0 means the frame was silent or unvoiced.
func (g *Segmenter) Observe(frameIndex int, pitch float64) {
	switch {
	case g.open == nil && pitch > 0:
		g.open = &Segment{
			StartFrame: frameIndex,
			EndFrame:   frameIndex,
			Pitches:    []float64{pitch},
		}
		g.silenceRun = 0

	case g.open != nil && pitch > 0:
		g.open.Pitches = append(g.open.Pitches, pitch)
		g.open.EndFrame = frameIndex
		g.silenceRun = 0

	case g.open != nil && pitch == 0:
		g.silenceRun++
		if g.silenceRun >= g.silenceRunFrames {
			g.closeOpen()
		}

	default:
		// No segment and no voice.
	}
}

// Flush closes a sufficiently long open segment. Call it when recording
// stops so that a phrase still being sung at that moment is not lost. Short
// open segments are discarded.
func (g *Segmenter) Flush() {
	g.closeOpen()
}

// Closed returns the closed segments accumulated so far. The returned slice
// is the segmenter's own; callers must not mutate it.
func (g *Segmenter) Closed() []Segment { return g.closed }

// Open returns a copy of the currently open segment, if any.
func (g *Segmenter) Open() (Segment, bool) {
	if g.open == nil {
		return Segment{}, false
	}
	return *g.open, true
}

// Reset clears all state for a new session.
func (g *Segmenter) Reset() {
	g.open = nil
	g.silenceRun = 0
	g.closed = nil
}

// closeOpen freezes the open segment onto the closed list when it meets the
// minimum length, discards it otherwise, and returns to the no-segment state.
func (g *Segmenter) closeOpen() {
	if g.open != nil && g.open.Length() >= g.minSegmentFrames {
		g.open.Stability = Stability(g.open.Pitches)
		g.closed = append(g.closed, *g.open)
	}
	g.open = nil
	g.silenceRun = 0
}
