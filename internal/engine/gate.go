// ABOUTME: Gesture unlock gate
// ABOUTME: Buffers chunks until output is permitted, then drains them in order
package engine

import (
	"context"
	"log"
)

// RequiresGesture reports whether output is still locked behind the
// first user gesture.
func (e *Engine) RequiresGesture() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.unlocked
}

// Unlock brings the output device to a running state after a user
// gesture and drains everything buffered while locked, preserving
// arrival order. Idempotent: after the first success it returns
// immediately.
//
// The device wait is bounded by Config.UnlockTimeout. On timeout or
// resume failure the engine unlocks anyway: platforms signal output
// readiness inconsistently, and never unlocking would permanently
// silence the producer.
func (e *Engine) Unlock(ctx context.Context) error {
	e.mu.Lock()
	if e.unlocked {
		e.mu.Unlock()
		return nil
	}
	timeout := e.cfg.UnlockTimeout
	e.mu.Unlock()

	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := e.raw.Resume(rctx); err != nil {
		log.Printf("Engine: device resume incomplete, unlocking optimistically: %v", err)
	}

	e.mu.Lock()
	e.unlocked = true
	e.blockedNotified = false
	e.ready = append(e.ready, e.pending...)
	e.pending = nil
	fires := e.drainLocked()
	e.mu.Unlock()

	e.fire(fires)
	return nil
}
