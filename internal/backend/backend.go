// ABOUTME: Playback backend interfaces and source identity
// ABOUTME: Defines the raw sample and encoded clip backend contracts
package backend

import (
	"context"
	"fmt"
)

// BackendKind tags which backend owns a scheduled source. Raw buffers
// and encoded clips keep separate id sequences under one bookkeeping map.
type BackendKind int

const (
	// KindRaw identifies sample-accurate raw buffer playback.
	KindRaw BackendKind = iota

	// KindClip identifies whole encoded clip playback.
	KindClip
)

// String returns the kind name for logging.
func (k BackendKind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindClip:
		return "clip"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SourceID identifies an active playback source. Seq is monotonically
// increasing within its kind.
type SourceID struct {
	Kind BackendKind
	Seq  uint64
}

// String renders the id with its backend namespace.
func (id SourceID) String() string {
	return fmt.Sprintf("%s-%d", id.Kind, id.Seq)
}

// Clock exposes the playback device clock in seconds. The zero point is
// backend-defined; only differences are meaningful.
type Clock interface {
	Now() float64
}

// SubmitOptions controls one raw buffer submission.
type SubmitOptions struct {
	// StartTime is the device-clock time playback must begin at.
	StartTime float64

	// Rate is the pitch/speed multiplier applied during playback.
	Rate float64

	// OnDone fires once when the buffer finishes naturally. Backends
	// must invoke it asynchronously, never from inside Submit, and
	// never after Cancel.
	OnDone func()
}

// ClipOptions controls one encoded clip submission.
type ClipOptions struct {
	// Rate is the pitch/speed multiplier applied during playback.
	Rate float64

	// OnDone fires once when the clip finishes naturally.
	OnDone func()

	// OnError fires if the clip fails mid-playback after PlayClip
	// returned. Load failures are returned from PlayClip directly.
	OnError func(error)
}

// Handle cancels an in-flight source. Cancel is synchronous: after it
// returns no more samples are produced and OnDone is suppressed.
type Handle interface {
	Cancel()
}

// RawBackend plays normalized sample buffers at precise start times.
type RawBackend interface {
	Clock

	// SampleRate returns the device output rate in Hz.
	SampleRate() int

	// Resume brings the output device to a running state. It blocks
	// until the device is ready or ctx expires.
	Resume(ctx context.Context) error

	// Submit schedules samples (floats in [-1,1] at SampleRate) for
	// playback at opts.StartTime.
	Submit(samples []float64, opts SubmitOptions) (Handle, error)
}

// ClipBackend decodes and plays whole pre-encoded clips.
type ClipBackend interface {
	// PlayClip starts the clip immediately at full volume. A payload
	// that fails to decode is reported by the returned error.
	PlayClip(payload []byte, opts ClipOptions) (Handle, error)
}
