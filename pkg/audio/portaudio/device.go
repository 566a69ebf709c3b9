// Package portaudio implements [audio.Device] on top of the system
// microphone via the PortAudio bindings.
//
// Capture runs at a fixed hop size and republishes overlapping analysis
// windows: every hop, the most recent FrameSize samples are copied out of an
// internal ring buffer and delivered as one [audio.Frame]. This gives the
// analysis loop its steady ~60 Hz cadence regardless of the window length.
package portaudio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pa "github.com/gordonklaus/portaudio"

	"github.com/voxscore/voxscore/pkg/audio"
)

const (
	// DefaultSampleRate is the capture rate used when none is configured.
	DefaultSampleRate = 44100

	// DefaultFrameSize is the analysis window length in samples.
	DefaultFrameSize = 4096

	// openAttempts bounds device-open retries. Microphones held briefly by
	// another client often free up within a few hundred milliseconds.
	openAttempts = 3
)

// Device opens the default system microphone. The zero value is not usable;
// create one with [New].
type Device struct {
	sampleRate int
	frameSize  int
	hop        int
}

// Option configures a [Device].
type Option func(*Device)

// WithSampleRate sets the capture sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(d *Device) {
		if rate > 0 {
			d.sampleRate = rate
		}
	}
}

// WithFrameSize sets the analysis window length in samples.
func WithFrameSize(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.frameSize = n
		}
	}
}

// New creates a microphone device. By default it captures 44.1 kHz mono and
// delivers 4096-sample windows at a 60 Hz cadence.
func New(opts ...Option) *Device {
	d := &Device{
		sampleRate: DefaultSampleRate,
		frameSize:  DefaultFrameSize,
	}
	for _, o := range opts {
		o(d)
	}
	// One hop per window republish; 60 windows per second. A hop larger
	// than the window degenerates to non-overlapping capture.
	d.hop = d.sampleRate / 60
	if d.hop > d.frameSize {
		d.hop = d.frameSize
	}
	return d
}

// Open implements [audio.Device]. It initialises PortAudio, opens the default
// input stream with retry/backoff, and starts the capture goroutine.
func (d *Device) Open(ctx context.Context) (audio.Stream, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}

	buf := make([]float32, d.hop)
	var paStream *pa.Stream
	var err error
	for attempt := 0; attempt < openAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				_ = pa.Terminate()
				return nil, ctx.Err()
			case <-time.After(time.Duration(100*(1<<attempt)) * time.Millisecond):
			}
		}
		paStream, err = pa.OpenDefaultStream(1, 0, float64(d.sampleRate), len(buf), buf)
		if err != nil {
			continue
		}
		if err = paStream.Start(); err != nil {
			_ = paStream.Close()
			paStream = nil
			continue
		}
		break
	}
	if paStream == nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("portaudio: %w: open default stream after %d attempts: %v",
			audio.ErrNoDevice, openAttempts, err)
	}

	s := &stream{
		pa:        paStream,
		buf:       buf,
		ring:      make([]float64, d.frameSize),
		rate:      d.sampleRate,
		frameSize: d.frameSize,
		frames:    make(chan audio.Frame, 8),
		done:      make(chan struct{}),
	}
	go s.captureLoop()

	slog.Info("microphone capture started",
		"sample_rate", d.sampleRate,
		"frame_size", d.frameSize,
		"hop", d.hop,
	)
	return s, nil
}

// stream is an active microphone capture.
type stream struct {
	pa        *pa.Stream
	buf       []float32
	ring      []float64
	rate      int
	frameSize int

	frames chan audio.Frame
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Frames implements [audio.Stream].
func (s *stream) Frames() <-chan audio.Frame { return s.frames }

// Close implements [audio.Stream]. The device is released unconditionally
// even if stopping the PortAudio stream reports an error.
func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.pa.Stop(); err != nil {
			s.closeErr = fmt.Errorf("portaudio: stop stream: %w", err)
		}
		if err := s.pa.Close(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("portaudio: close stream: %w", err)
		}
		if err := pa.Terminate(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("portaudio: terminate: %w", err)
		}
	})
	return s.closeErr
}

// captureLoop blocks on the PortAudio read cadence. Each successful read
// shifts the hop into the ring buffer and publishes a copy of the latest
// window. The loop owns the frames channel and closes it on exit.
func (s *stream) captureLoop() {
	defer close(s.frames)

	index := 0
	for {
		select {
		case <-s.done:
			return
		default:
		}

		if err := s.pa.Read(); err != nil {
			select {
			case <-s.done:
			default:
				slog.Warn("microphone read failed, ending capture", "err", err)
			}
			return
		}

		// Shift the hop into the ring buffer.
		hop := len(s.buf)
		copy(s.ring, s.ring[hop:])
		tail := s.ring[s.frameSize-hop:]
		for i, v := range s.buf {
			tail[i] = float64(v)
		}

		window := make([]float64, s.frameSize)
		copy(window, s.ring)

		select {
		case s.frames <- audio.Frame{Samples: window, SampleRate: s.rate, Index: index}:
			index++
		case <-s.done:
			return
		}
	}
}
