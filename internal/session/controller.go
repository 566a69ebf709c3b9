// Package session coordinates one scoring session at a time: it opens the
// audio device, drives every captured frame through pitch analysis and
// segmentation, emits live score snapshots, and persists the final score.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxscore/voxscore/internal/dsp"
	"github.com/voxscore/voxscore/internal/health"
	"github.com/voxscore/voxscore/internal/observe"
	"github.com/voxscore/voxscore/internal/score"
	"github.com/voxscore/voxscore/internal/store"
	"github.com/voxscore/voxscore/pkg/audio"
)

// State is the controller lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
)

// defaultEmitInterval is how many frames pass between live snapshots,
// roughly four per second at the 60Hz frame cadence.
const defaultEmitInterval = 15

// saveTimeout bounds the final score write at session end.
const saveTimeout = 5 * time.Second

// Listener receives score snapshots. final is true exactly once per
// session, for the snapshot computed after the last frame.
type Listener func(snap score.Snapshot, final bool)

// Option is a functional option for configuring a [Controller].
type Option func(*Controller)

// WithLogger sets the logger. The default is [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics sets the metrics instruments. The default is
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithEstimator replaces the default pitch estimator.
func WithEstimator(est *dsp.Estimator) Option {
	return func(c *Controller) {
		if est != nil {
			c.est = est
		}
	}
}

// WithSegmentation overrides the silence-run and minimum-segment frame
// counts used by the segmenter.
func WithSegmentation(silenceRunFrames, minSegmentFrames int) Option {
	return func(c *Controller) {
		c.segOpts = append(c.segOpts,
			score.WithSilenceRun(silenceRunFrames),
			score.WithMinSegmentLength(minSegmentFrames),
		)
	}
}

// WithEmitInterval sets how many frames pass between live snapshots.
func WithEmitInterval(frames int) Option {
	return func(c *Controller) {
		if frames > 0 {
			c.emitEvery = frames
		}
	}
}

// WithListener registers the snapshot listener.
func WithListener(fn Listener) Option {
	return func(c *Controller) {
		c.listener = fn
	}
}

// Controller owns the session lifecycle. At most one session records at a
// time; Start and Stop are safe to call from any goroutine and are no-ops
// when the controller is already in the requested state.
type Controller struct {
	device    audio.Device
	store     store.Store
	est       *dsp.Estimator
	log       *slog.Logger
	metrics   *observe.Metrics
	listener  Listener
	emitEvery int
	segOpts   []score.SegmenterOption

	mu          sync.Mutex
	state       State
	stream      audio.Stream
	seg         *score.Segmenter
	frames      int
	previous    int
	hasPrevious bool
	lastSnap    *score.Snapshot
	lastErr     error
	finishErr   error
	done        chan struct{}
}

// New creates a controller over the given device and score store.
func New(device audio.Device, st store.Store, opts ...Option) *Controller {
	c := &Controller{
		device:    device,
		store:     st,
		log:       slog.Default(),
		emitEvery: defaultEmitInterval,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.est == nil {
		c.est = dsp.NewEstimator()
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Start begins a scoring session. Calling Start while a session is already
// running is a no-op. It loads the previous session's score for smoothing,
// opens the audio device, and launches the analysis loop; the session then
// runs until [Controller.Stop] or until the device's stream ends on its own.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		c.log.Debug("start ignored, session already active", "state", c.state)
		return nil
	}
	c.state = StateStarting
	c.lastErr = nil
	c.finishErr = nil
	c.mu.Unlock()

	// A failed load is not fatal: the session simply scores without
	// smoothing against history.
	prev, ok, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn("could not load previous score, smoothing disabled", "err", err)
		prev, ok = 0, false
	}

	stream, err := c.device.Open(ctx)
	if err != nil {
		c.metrics.AcquisitionErrors.Add(ctx, 1)
		c.mu.Lock()
		c.state = StateIdle
		c.lastErr = err
		c.mu.Unlock()
		return fmt.Errorf("session: open audio device: %w", err)
	}

	c.mu.Lock()
	c.stream = stream
	est := c.est
	c.seg = score.NewSegmenter(c.segOpts...)
	c.frames = 0
	c.previous = prev
	c.hasPrevious = ok
	c.lastSnap = nil
	c.state = StateRecording
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.metrics.ActiveSessions.Add(ctx, 1)
	c.log.Info("session started", "previous_score", prev, "has_previous", ok)

	go c.run(stream, done, est)
	return nil
}

// Stop ends the current session: the open segment is flushed, a final
// snapshot is emitted, and a non-zero total is persisted. Calling Stop with
// no session running is a no-op. The audio stream is released even when
// persistence fails.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		c.log.Debug("stop ignored, no active session", "state", c.state)
		return nil
	}
	c.state = StateStopping
	stream := c.stream
	done := c.done
	c.mu.Unlock()

	// Closing the stream ends the frame channel; the run loop finalizes.
	if err := stream.Close(); err != nil {
		c.log.Warn("closing audio stream", "err", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("session: waiting for session to finish: %w", ctx.Err())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishErr
}

// Reconfigure applies options that take effect when the next session
// starts. A session already recording keeps its tuning; mid-session changes
// would reorder frames against segments scored under the old settings.
func (c *Controller) Reconfigure(opts ...Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.segOpts = nil
	for _, opt := range opts {
		opt(c)
	}
}

// Status reports the controller state for the status endpoint.
func (c *Controller) Status() health.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := health.SessionStatus{
		State:     string(c.state),
		Recording: c.state == StateRecording,
	}
	if c.lastErr != nil {
		st.Error = c.lastErr.Error()
	}
	if c.lastSnap != nil {
		snap := *c.lastSnap
		st.Score = &snap
	}
	return st
}

// run consumes the stream until it ends, then finalizes the session.
func (c *Controller) run(stream audio.Stream, done chan struct{}, est *dsp.Estimator) {
	for frame := range stream.Frames() {
		c.analyze(frame, est)
	}
	c.finish(stream, done)
}

// analyze runs one frame through the estimator and segmenter, emitting a
// live snapshot every emitEvery frames. A malformed frame counts as silence.
func (c *Controller) analyze(frame audio.Frame, est *dsp.Estimator) {
	start := time.Now()

	var pitch float64
	if frame.WellFormed() {
		pitch = est.Estimate(frame.Samples, frame.SampleRate)
	}

	c.mu.Lock()
	closedBefore := len(c.seg.Closed())
	c.seg.Observe(frame.Index, pitch)
	closedDelta := len(c.seg.Closed()) - closedBefore
	c.frames++
	emit := c.frames%c.emitEvery == 0
	c.mu.Unlock()

	ctx := context.Background()
	c.metrics.RecordFrame(ctx, time.Since(start), pitch > 0)
	if closedDelta > 0 {
		c.metrics.SegmentsClosed.Add(ctx, int64(closedDelta))
	}

	if emit {
		c.emit(false)
	}
}

// emit computes the current score and delivers it to the listener.
func (c *Controller) emit(final bool) {
	c.mu.Lock()
	open, hasOpen := c.seg.Open()
	var openPtr *score.Segment
	if hasOpen {
		openPtr = &open
	}
	snap := score.Aggregate(c.seg.Closed(), openPtr, c.seg.MinSegmentFrames())
	snap.Total = score.Smooth(snap.Total, c.previous, c.hasPrevious)
	c.lastSnap = &snap
	listener := c.listener
	c.mu.Unlock()

	c.metrics.SnapshotsEmitted.Add(context.Background(), 1)
	if listener != nil {
		listener(snap, final)
	}
}

// finish flushes the open segment, emits the final snapshot, persists a
// non-zero total, and returns the controller to idle. It runs exactly once
// per session, on the analysis goroutine, after the frame channel closes.
func (c *Controller) finish(stream audio.Stream, done chan struct{}) {
	// Idempotent; releases the device even when Stop was never called
	// (stream ended on its own).
	_ = stream.Close()

	c.mu.Lock()
	c.seg.Flush()
	c.mu.Unlock()

	c.emit(true)

	c.mu.Lock()
	final := *c.lastSnap
	c.mu.Unlock()

	var finishErr error
	if final.Total > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := c.store.Save(ctx, final.Total); err != nil {
			finishErr = fmt.Errorf("session: persist final score: %w", err)
			c.log.Error("persisting final score", "err", err, "total", final.Total)
		}
		cancel()
	} else {
		c.log.Info("session produced no score, nothing persisted")
	}

	c.metrics.ActiveSessions.Add(context.Background(), -1)

	c.mu.Lock()
	if finishErr == nil && final.Total > 0 {
		c.previous = final.Total
		c.hasPrevious = true
	}
	c.finishErr = finishErr
	c.lastErr = finishErr
	c.stream = nil
	c.state = StateIdle
	c.mu.Unlock()

	c.log.Info("session finished",
		"pitch_accuracy", final.PitchAccuracy,
		"timing", final.Timing,
		"total", final.Total,
	)
	close(done)
}
