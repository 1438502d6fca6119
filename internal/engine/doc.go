// ABOUTME: Gapless playback engine package
// ABOUTME: Scheduling cursor, gesture gate, backend router and facade
// Package engine implements the gapless audio scheduling engine.
//
// Chunks are accepted in arrival order, decoded to the device rate,
// assigned non-overlapping start times on a monotonic scheduling
// cursor, edge-faded against clicks, and submitted to one of two
// backends: sample-accurate raw playback or whole encoded clips.
// Either source can barge in on the other.
//
// No audio reaches a backend before Unlock has been called once — the
// gesture gate buffers early chunks and drains them in order.
//
// Example:
//
//	out, err := backend.NewOto(48000)
//	eng, err := engine.New(out, out, engine.Config{
//	    OnFinish: func() { log.Println("utterance complete") },
//	})
//	eng.Unlock(ctx)
//	eng.Enqueue(audio.NewPCMChunk(payload))
package engine
