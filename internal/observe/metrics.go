// Package observe wires OpenTelemetry metrics for the scoring pipeline and
// exposes them through a Prometheus exporter.
package observe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/voxscore/voxscore"

// analysisBuckets cover the per-frame analysis budget: at a 60 Hz frame
// cadence anything above ~16ms means the pipeline is falling behind.
var analysisBuckets = []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.032, 0.064}

// Metrics holds the instruments recorded across the pipeline.
type Metrics struct {
	// FrameAnalysisDuration measures wall time of a single frame's
	// pitch-estimation pass, in seconds.
	FrameAnalysisDuration metric.Float64Histogram

	// FramesAnalyzed counts frames run through the estimator, labeled by
	// whether a pitch was detected.
	FramesAnalyzed metric.Int64Counter

	// SegmentsClosed counts phrase segments finalized by the segmenter.
	SegmentsClosed metric.Int64Counter

	// SnapshotsEmitted counts score snapshots delivered to listeners.
	SnapshotsEmitted metric.Int64Counter

	// AcquisitionErrors counts failures while reading from the audio device.
	AcquisitionErrors metric.Int64Counter

	// ActiveSessions tracks how many scoring sessions are currently recording.
	ActiveSessions metric.Int64UpDownCounter
}

// NewMetrics creates all instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.FrameAnalysisDuration, err = meter.Float64Histogram(
		"voxscore.frame.analysis.duration",
		metric.WithDescription("Wall time of one frame's pitch analysis"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(analysisBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: create frame duration histogram: %w", err)
	}

	m.FramesAnalyzed, err = meter.Int64Counter(
		"voxscore.frames.analyzed",
		metric.WithDescription("Audio frames run through the pitch estimator"),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: create frames counter: %w", err)
	}

	m.SegmentsClosed, err = meter.Int64Counter(
		"voxscore.segments.closed",
		metric.WithDescription("Phrase segments finalized by the segmenter"),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: create segments counter: %w", err)
	}

	m.SnapshotsEmitted, err = meter.Int64Counter(
		"voxscore.snapshots.emitted",
		metric.WithDescription("Score snapshots delivered to listeners"),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: create snapshots counter: %w", err)
	}

	m.AcquisitionErrors, err = meter.Int64Counter(
		"voxscore.acquisition.errors",
		metric.WithDescription("Failures while reading from the audio device"),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: create acquisition counter: %w", err)
	}

	m.ActiveSessions, err = meter.Int64UpDownCounter(
		"voxscore.sessions.active",
		metric.WithDescription("Scoring sessions currently recording"),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: create sessions gauge: %w", err)
	}

	return m, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns process-wide instruments on the global meter
// provider. Instrument creation errors are ignored here; the OTel SDK
// returns usable no-op instruments alongside any error.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider().Meter(meterName))
		if err != nil {
			m = &Metrics{}
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordFrame records one analysis pass.
func (m *Metrics) RecordFrame(ctx context.Context, elapsed time.Duration, voiced bool) {
	if m == nil || m.FrameAnalysisDuration == nil {
		return
	}
	m.FrameAnalysisDuration.Record(ctx, elapsed.Seconds())
	m.FramesAnalyzed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("voiced", voiced)))
}
