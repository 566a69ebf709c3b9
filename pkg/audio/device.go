// Package audio defines the interfaces and types for audio input devices and
// capture streams within Voxscore.
//
// The two primary abstractions are:
//
//   - [Device] — opens an exclusive capture stream on an input source.
//   - [Stream] — an active capture, delivering fixed-size [Frame] windows at a
//     steady cadence until closed.
//
// Implementations are provided by source-specific adapter packages
// (audio/portaudio for real microphones, audio/synth for deterministic test
// signals). The interfaces are intentionally narrow to keep the session
// controller decoupled from capture details.
//
// This package lives under pkg/ because external capture adapters are
// expected to implement [Device] and [Stream].
package audio

import (
	"context"
	"errors"
)

// Acquisition errors surfaced by [Device.Open]. They are terminal only for
// that open attempt; callers may retry.
var (
	// ErrNoDevice indicates no usable input device was found.
	ErrNoDevice = errors.New("audio: no input device found")

	// ErrDeviceBusy indicates the input device is held by another process.
	ErrDeviceBusy = errors.New("audio: input device busy")

	// ErrPermission indicates capture permission was denied.
	ErrPermission = errors.New("audio: capture permission denied")
)

// Stream is an active audio capture.
//
// Frames are delivered in strict index order on the channel returned by
// [Stream.Frames]; the channel is closed when the stream ends, either via
// [Stream.Close] or because the underlying source failed.
type Stream interface {
	// Frames returns the channel delivering capture windows. The same channel
	// is returned on every call.
	Frames() <-chan Frame

	// Close releases the underlying device and closes the frame channel.
	// It is safe to call Close more than once; subsequent calls are no-ops
	// and return nil.
	Close() error
}

// Device is the entry point for an audio input source. Implementations wrap
// capture backends and expose a uniform [Stream] abstraction.
//
// Implementations must be safe for concurrent use.
type Device interface {
	// Open acquires the device exclusively and starts capture. The supplied
	// ctx governs the lifetime of the open attempt only; once capturing, the
	// Stream remains alive until [Stream.Close] is called explicitly.
	//
	// Returns [ErrNoDevice], [ErrDeviceBusy], or [ErrPermission] (possibly
	// wrapped) when acquisition fails.
	Open(ctx context.Context) (Stream, error)
}
