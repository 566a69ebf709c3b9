// Package mock provides in-memory mock implementations of the [audio.Device]
// and [audio.Stream] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so
// that tests can assert on call counts and arguments, and they expose
// exported fields that the test can set to control return values.
//
// Typical usage:
//
//	stream := mock.NewStream(16)
//	device := &mock.Device{OpenResult: stream}
//	go func() {
//	    stream.Push(audio.Frame{Samples: samples, SampleRate: 44100, Index: 0})
//	    stream.Finish()
//	}()
package mock

import (
	"context"
	"sync"

	"github.com/voxscore/voxscore/pkg/audio"
)

// ─── Stream ───────────────────────────────────────────────────────────────────

// Stream is a mock implementation of [audio.Stream]. Feed frames with
// [Stream.Push] and end the stream with [Stream.Finish] or Close.
type Stream struct {
	mu sync.Mutex

	// CloseError is returned by the first call to [Stream.Close].
	CloseError error

	// CallCountFrames records how many times Frames was called.
	CallCountFrames int

	// CallCountClose records how many times Close was called.
	CallCountClose int

	ch     chan audio.Frame
	closed bool
}

// NewStream creates a mock stream whose frame channel has the given buffer
// capacity.
func NewStream(buffer int) *Stream {
	return &Stream{ch: make(chan audio.Frame, buffer)}
}

// Frames implements [audio.Stream].
func (s *Stream) Frames() <-chan audio.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountFrames++
	return s.ch
}

// Close implements [audio.Stream]. The frame channel is closed on the first
// call; subsequent calls are no-ops returning nil.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountClose++
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.ch)
	return s.CloseError
}

// Push delivers a frame to the stream's consumer. Push panics if the stream
// has been closed; tests are expected to coordinate Push and Close.
func (s *Stream) Push(f audio.Frame) {
	s.ch <- f
}

// Finish closes the frame channel without counting as a consumer-initiated
// Close, simulating a source that ran out of input.
func (s *Stream) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Closed reports whether the stream has ended.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ─── Device ───────────────────────────────────────────────────────────────────

// Device is a mock implementation of [audio.Device].
// Set the exported Result fields before use; inspect the Call* fields after.
type Device struct {
	mu sync.Mutex

	// OpenResult is returned by [Device.Open] when OpenError is nil.
	OpenResult *Stream

	// OpenError is returned by [Device.Open]. Use the audio sentinel errors
	// to simulate acquisition failures.
	OpenError error

	// CallCountOpen records how many times Open was called.
	CallCountOpen int
}

// Open implements [audio.Device].
func (d *Device) Open(_ context.Context) (audio.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCountOpen++
	if d.OpenError != nil {
		return nil, d.OpenError
	}
	return d.OpenResult, nil
}
