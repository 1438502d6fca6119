// ABOUTME: Gapless playback engine facade
// ABOUTME: Queue management, state snapshot and lifecycle callbacks
package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/vocalis-audio/vocalis-go/internal/backend"
	"github.com/vocalis-audio/vocalis-go/pkg/audio"
	"github.com/vocalis-audio/vocalis-go/pkg/audio/decode"
)

// Sentinel errors surfaced to producers.
var (
	// ErrGestureRequired is returned by PlayClip while the gate is
	// locked. Raw chunk enqueue never returns it; chunks queue instead.
	ErrGestureRequired = errors.New("engine: gesture unlock required for clip playback")

	// ErrPitchOutOfRange is returned for pitch factors outside (0, 10].
	ErrPitchOutOfRange = errors.New("engine: pitch factor out of range (0, 10]")
)

// Config holds engine configuration and lifecycle callbacks.
// Callbacks are invoked outside the engine lock; they may call back
// into the engine.
type Config struct {
	// LeadTime is the minimum scheduling offset ahead of the device
	// clock, in seconds (default 0.1).
	LeadTime float64

	// Crossfade is the anti-click fade window in seconds (default 0.005).
	Crossfade float64

	// PitchFactor is the initial speed/pitch multiplier (default 1.0).
	PitchFactor float64

	// UnlockTimeout bounds how long Unlock waits for the device before
	// proceeding optimistically (default 1s).
	UnlockTimeout time.Duration

	// OnStart fires once per idle-to-active transition.
	OnStart func()

	// OnFinish fires once when the last source completes with an
	// empty ready queue.
	OnFinish func()

	// OnCancel fires once per Stop call, and on barge-in when playback
	// was actually cancelled.
	OnCancel func()

	// OnAutoplayBlocked fires once per locked stretch when a chunk is
	// queued while output is not yet permitted.
	OnAutoplayBlocked func()

	// OnError receives chunk-level decode failures and clip load
	// failures. Neither aborts the session.
	OnError func(error)
}

// Engine schedules raw sample chunks and encoded clips for gapless
// playback. All queue mutation and cursor arithmetic happen under one
// lock; backends only report completion of a source id.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	raw   backend.RawBackend
	clips backend.ClipBackend
	dec   *decode.Decoder

	unlocked        bool
	blockedNotified bool

	pending []audio.Chunk
	ready   []audio.Chunk

	// nextScheduledTime is the timeline position immediately after the
	// last scheduled buffer. Only drainLocked advances it.
	nextScheduledTime float64

	pitch    float64
	active   bool
	draining bool

	sources map[backend.SourceID]*source
	rawSeq  uint64
	clipSeq uint64
}

// New creates an engine on the given backends. The raw backend's
// sample rate fixes the decode output rate.
func New(raw backend.RawBackend, clips backend.ClipBackend, cfg Config) (*Engine, error) {
	if cfg.LeadTime == 0 {
		cfg.LeadTime = audio.DefaultLeadTime
	}
	if cfg.Crossfade == 0 {
		cfg.Crossfade = audio.DefaultCrossfade
	}
	if cfg.PitchFactor == 0 {
		cfg.PitchFactor = 1.0
	}
	if cfg.UnlockTimeout == 0 {
		cfg.UnlockTimeout = time.Second
	}

	if cfg.PitchFactor <= 0 || cfg.PitchFactor > audio.MaxPitchFactor {
		return nil, fmt.Errorf("%w: %v", ErrPitchOutOfRange, cfg.PitchFactor)
	}

	dec, err := decode.New(raw.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	return &Engine{
		cfg:     cfg,
		raw:     raw,
		clips:   clips,
		dec:     dec,
		pitch:   cfg.PitchFactor,
		sources: make(map[backend.SourceID]*source),
	}, nil
}

// Enqueue accepts one raw chunk for playback. While locked the chunk
// is buffered (a normal condition, not an error); once unlocked it is
// scheduled immediately after everything already queued.
func (e *Engine) Enqueue(c audio.Chunk) error {
	if err := c.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	var fires []func()

	if !e.unlocked {
		e.pending = append(e.pending, c)
		if !e.blockedNotified {
			e.blockedNotified = true
			fires = append(fires, e.cfg.OnAutoplayBlocked)
		}
		e.mu.Unlock()
		e.fire(fires)
		return nil
	}

	e.ready = append(e.ready, c)
	fires = e.drainLocked()
	e.mu.Unlock()
	e.fire(fires)
	return nil
}

// Stop cancels every in-flight source in both backends, clears the
// queues and resets the cursor. By return both source sets are empty.
// Safe to call when idle and safe to repeat; OnCancel fires exactly
// once per call.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.cancelAllLocked()
	e.pending = nil
	e.ready = nil
	e.nextScheduledTime = 0
	e.active = false
	cb := e.cfg.OnCancel
	e.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Flush drops not-yet-scheduled chunks without disturbing in-flight
// sources.
func (e *Engine) Flush() {
	e.mu.Lock()
	e.pending = nil
	e.ready = nil
	e.mu.Unlock()
}

// SetPitchFactor updates the speed/pitch multiplier for subsequently
// scheduled buffers. Values outside (0, 10] are rejected and the prior
// factor is retained.
func (e *Engine) SetPitchFactor(v float64) error {
	if math.IsNaN(v) || v <= 0 || v > audio.MaxPitchFactor {
		return fmt.Errorf("%w: %v", ErrPitchOutOfRange, v)
	}

	e.mu.Lock()
	e.pitch = v
	e.mu.Unlock()
	return nil
}

// PitchFactor returns the current multiplier.
func (e *Engine) PitchFactor() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pitch
}

// IsPlaying reports whether any source is live in either backend or a
// buffer has started without reporting completion yet.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active || len(e.sources) > 0
}

// State is an observability snapshot of the engine.
type State struct {
	Pending           int
	Ready             int
	Unlocked          bool
	DeviceTime        float64
	NextScheduledTime float64
	Playing           bool
	ActiveSources     int
	PitchFactor       float64
}

// State returns a point-in-time snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return State{
		Pending:           len(e.pending),
		Ready:             len(e.ready),
		Unlocked:          e.unlocked,
		DeviceTime:        e.raw.Now(),
		NextScheduledTime: e.nextScheduledTime,
		Playing:           e.active || len(e.sources) > 0,
		ActiveSources:     len(e.sources),
		PitchFactor:       e.pitch,
	}
}

// fire invokes collected callbacks after the lock is released.
func (e *Engine) fire(fns []func()) {
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}
