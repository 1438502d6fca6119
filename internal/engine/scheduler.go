// ABOUTME: Drain pass scheduling and envelope math
// ABOUTME: Assigns non-overlapping start times and anti-click fades
package engine

import (
	"log"

	"github.com/vocalis-audio/vocalis-go/internal/backend"
)

// drainLocked runs one scheduling pass over the ready queue. Caller
// holds e.mu. Returns callbacks to fire after the lock is released.
//
// Only one pass runs at a time: a chunk appended mid-pass (from a
// callback re-entering Enqueue) is consumed by the loop below instead
// of starting a second pass with interleaved cursor updates.
func (e *Engine) drainLocked() []func() {
	if e.draining || !e.unlocked {
		return nil
	}
	e.draining = true
	defer func() { e.draining = false }()

	var fires []func()

	now := e.raw.Now()
	if e.nextScheduledTime <= now {
		// Cursor is stale: nothing scheduled recently, or this is the
		// first buffer. Restart the timeline leadTime ahead of the clock.
		e.nextScheduledTime = now + e.cfg.LeadTime
	}

	for len(e.ready) > 0 {
		c := e.ready[0]
		e.ready = e.ready[1:]

		buf, err := e.dec.Decode(c)
		if err != nil {
			// Chunk-level failure: skip and continue with the queue.
			log.Printf("Engine: dropping undecodable chunk: %v", err)
			if cb := e.cfg.OnError; cb != nil {
				err := err
				fires = append(fires, func() { cb(err) })
			}
			continue
		}
		if len(buf.Samples) == 0 {
			continue
		}

		audible := buf.Duration() / e.pitch
		applyEnvelope(buf.Samples, buf.SampleRate, e.pitch, e.cfg.Crossfade, audible)

		id := backend.SourceID{Kind: backend.KindRaw, Seq: e.nextRawSeq()}
		start := e.nextScheduledTime

		handle, err := e.raw.Submit(buf.Samples, backend.SubmitOptions{
			StartTime: start,
			Rate:      e.pitch,
			OnDone:    func() { e.sourceDone(id) },
		})
		if err != nil {
			log.Printf("Engine: submit failed for %s: %v", id, err)
			if cb := e.cfg.OnError; cb != nil {
				err := err
				fires = append(fires, func() { cb(err) })
			}
			continue
		}

		e.sources[id] = &source{
			id:        id,
			handle:    handle,
			startTime: start,
			endTime:   start + audible,
		}
		e.nextScheduledTime += audible

		if !e.active {
			e.active = true
			fires = append(fires, e.cfg.OnStart)
		}
	}

	return fires
}

// applyEnvelope ramps the buffer edges in place to prevent clicks.
// The fade-in covers the crossfade window from the start; the fade-out
// ends exactly at the buffer's audible end and is only applied when
// the audible duration exceeds twice the window. Fade lengths are in
// source samples: wall-clock seconds scale by the pitch factor.
func applyEnvelope(samples []float64, sampleRate int, pitch, crossfade, audible float64) {
	fade := int(crossfade * pitch * float64(sampleRate))
	if fade <= 0 {
		return
	}
	if fade > len(samples) {
		fade = len(samples)
	}

	for i := 0; i < fade; i++ {
		samples[i] *= float64(i) / float64(fade)
	}

	if audible > 2*crossfade {
		n := len(samples)
		for i := 0; i < fade; i++ {
			samples[n-fade+i] *= float64(fade-1-i) / float64(fade)
		}
	}
}
