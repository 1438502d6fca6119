// ABOUTME: Backend routing and source bookkeeping
// ABOUTME: Tracks live sources, handles barge-in and completion signals
package engine

import (
	"log"

	"github.com/vocalis-audio/vocalis-go/internal/backend"
)

// source is an active playback handle. Owned exclusively by the engine
// for its lifetime; removed on natural completion or cancellation.
type source struct {
	id        backend.SourceID
	handle    backend.Handle
	startTime float64
	endTime   float64
}

func (e *Engine) nextRawSeq() uint64 {
	e.rawSeq++
	return e.rawSeq
}

func (e *Engine) nextClipSeq() uint64 {
	e.clipSeq++
	return e.clipSeq
}

// PlayClip barges in with a whole pre-encoded clip: anything currently
// playing in either backend is cancelled synchronously, then the clip
// starts at full volume and the session pitch factor.
//
// Calling PlayClip while the gate is locked is a caller error and
// returns ErrGestureRequired; unlike raw enqueue, clips never queue. A
// clip that fails to load is reported through OnError and discarded —
// the zero SourceID and a nil error are returned, since one bad clip
// must not crash the caller.
func (e *Engine) PlayClip(payload []byte) (backend.SourceID, error) {
	e.mu.Lock()

	if !e.unlocked {
		e.mu.Unlock()
		return backend.SourceID{}, ErrGestureRequired
	}

	var fires []func()

	wasPlaying := e.active || len(e.sources) > 0
	e.cancelAllLocked()
	e.pending = nil
	e.ready = nil
	e.nextScheduledTime = 0
	if wasPlaying {
		e.active = false
		fires = append(fires, e.cfg.OnCancel)
	}

	id := backend.SourceID{Kind: backend.KindClip, Seq: e.nextClipSeq()}

	handle, err := e.clips.PlayClip(payload, backend.ClipOptions{
		Rate:    e.pitch,
		OnDone:  func() { e.sourceDone(id) },
		OnError: func(err error) { e.sourceFailed(id, err) },
	})
	if err != nil {
		log.Printf("Engine: clip load failed, discarding: %v", err)
		if cb := e.cfg.OnError; cb != nil {
			err := err
			fires = append(fires, func() { cb(err) })
		}
		e.mu.Unlock()
		e.fire(fires)
		return backend.SourceID{}, nil
	}

	now := e.raw.Now()
	e.sources[id] = &source{id: id, handle: handle, startTime: now}

	if !e.active {
		e.active = true
		fires = append(fires, e.cfg.OnStart)
	}

	e.mu.Unlock()
	e.fire(fires)
	return id, nil
}

// sourceDone removes a naturally completed source and, when it was the
// last one and the ready queue is empty, transitions active to idle.
// Completion is level-triggered: a spurious signal for an id that was
// already removed (cancelled, or reported after Stop) is ignored.
func (e *Engine) sourceDone(id backend.SourceID) {
	e.mu.Lock()
	var fires []func()

	if _, ok := e.sources[id]; ok {
		delete(e.sources, id)

		if e.active && len(e.sources) == 0 && len(e.ready) == 0 {
			e.active = false
			fires = append(fires, e.cfg.OnFinish)
		}
	}

	e.mu.Unlock()
	e.fire(fires)
}

// sourceFailed discards a source whose backend playback errored after
// start. The failure does not propagate beyond the log; idle detection
// runs as for natural completion so the session cannot wedge active.
func (e *Engine) sourceFailed(id backend.SourceID, err error) {
	log.Printf("Engine: source %s failed during playback: %v", id, err)
	e.sourceDone(id)
}

// cancelAllLocked synchronously cancels every live source in both
// backends. Caller holds e.mu. Sources are removed from the map before
// Cancel so late completion callbacks find nothing to act on.
func (e *Engine) cancelAllLocked() {
	for id, s := range e.sources {
		delete(e.sources, id)
		s.handle.Cancel()
	}
}
