// ABOUTME: Audio backend using oto and go-mp3
// ABOUTME: Plays raw sample buffers at scheduled times and whole MP3 clips
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"

	"github.com/vocalis-audio/vocalis-go/pkg/audio/decode"
)

// completionSlack pads the playback timer so the device buffer drains
// before the player is closed.
const completionSlack = 20 * time.Millisecond

// Oto implements RawBackend and ClipBackend on a single mono oto
// context. oto allows one context per process, so raw buffers and
// decoded clips share it.
type Oto struct {
	ctx        *oto.Context
	ready      chan struct{}
	sampleRate int
	epoch      time.Time
}

// NewOto creates the output device context at the given rate.
func NewOto(sampleRate int) (*Oto, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("backend: failed to create oto context: %w", err)
	}

	return &Oto{
		ctx:        ctx,
		ready:      ready,
		sampleRate: sampleRate,
		epoch:      time.Now(),
	}, nil
}

// Now returns the device clock in seconds since the context was created.
func (o *Oto) Now() float64 {
	return time.Since(o.epoch).Seconds()
}

// SampleRate returns the device output rate.
func (o *Oto) SampleRate() int {
	return o.sampleRate
}

// Resume blocks until the device signals readiness or ctx expires,
// then brings a suspended context back to running.
func (o *Oto) Resume(ctx context.Context) error {
	select {
	case <-o.ready:
	case <-ctx.Done():
		return fmt.Errorf("backend: device not ready: %w", ctx.Err())
	}

	if err := o.ctx.Resume(); err != nil {
		return fmt.Errorf("backend: resume failed: %w", err)
	}
	return nil
}

// Suspend pauses the device context.
func (o *Oto) Suspend() error {
	return o.ctx.Suspend()
}

// Submit schedules a raw buffer for playback at opts.StartTime.
func (o *Oto) Submit(samples []float64, opts SubmitOptions) (Handle, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("backend: empty buffer")
	}

	adjusted := playbackSamples(samples, opts.Rate, o.sampleRate)
	return o.play(adjusted, opts.StartTime, opts.OnDone), nil
}

// PlayClip decodes a whole MP3 payload and starts it immediately.
func (o *Oto) PlayClip(payload []byte, opts ClipOptions) (Handle, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("backend: clip decode failed: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("backend: clip read failed: %w", err)
	}

	mono := downmixStereo(pcm)
	if dec.SampleRate() != o.sampleRate {
		mono = decode.Resample(mono, dec.SampleRate(), o.sampleRate)
	}
	mono = playbackSamples(mono, opts.Rate, o.sampleRate)

	if len(mono) == 0 {
		return nil, fmt.Errorf("backend: clip decoded to no samples")
	}

	return o.play(mono, o.Now(), opts.OnDone), nil
}

// play starts a goroutine that waits for the start time, writes the
// buffer to the device and reports natural completion.
func (o *Oto) play(samples []float64, startTime float64, onDone func()) *playHandle {
	h := &playHandle{cancel: make(chan struct{})}

	go func() {
		if delay := startTime - o.Now(); delay > 0 {
			t := time.NewTimer(time.Duration(delay * float64(time.Second)))
			defer t.Stop()
			select {
			case <-t.C:
			case <-h.cancel:
				return
			}
		} else {
			select {
			case <-h.cancel:
				return
			default:
			}
		}

		player := o.ctx.NewPlayer(bytes.NewReader(toS16LE(samples)))
		player.Play()

		dur := time.Duration(float64(len(samples)) / float64(o.sampleRate) * float64(time.Second))
		t := time.NewTimer(dur + completionSlack)
		defer t.Stop()

		select {
		case <-t.C:
		case <-h.cancel:
			if err := player.Close(); err != nil {
				log.Printf("Backend: player close after cancel: %v", err)
			}
			return
		}

		if err := player.Close(); err != nil {
			log.Printf("Backend: player close: %v", err)
		}

		if onDone != nil {
			onDone()
		}
	}()

	return h
}

// playHandle cancels an in-flight playback goroutine.
type playHandle struct {
	once   sync.Once
	cancel chan struct{}
}

// Cancel stops playback and suppresses the completion callback.
func (h *playHandle) Cancel() {
	h.once.Do(func() { close(h.cancel) })
}

// playbackSamples applies the pitch/speed multiplier by resampling.
// A rate of r consumes source material r times faster, shortening the
// buffer to len/r device samples.
func playbackSamples(samples []float64, rate float64, sampleRate int) []float64 {
	if rate <= 0 || rate == 1.0 {
		return samples
	}
	return decode.Resample(samples, int(float64(sampleRate)*rate+0.5), sampleRate)
}

// toS16LE converts normalized floats to packed little-endian 16-bit,
// clamping out-of-range values.
func toS16LE(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		out[i*2] = byte(v)
		out[i*2+1] = byte(uint16(v) >> 8)
	}
	return out
}

// downmixStereo converts go-mp3's interleaved 16-bit stereo output to
// normalized mono by averaging channels.
func downmixStereo(pcm []byte) []float64 {
	frames := len(pcm) / 4
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		l := int16(uint16(pcm[i*4]) | uint16(pcm[i*4+1])<<8)
		r := int16(uint16(pcm[i*4+2]) | uint16(pcm[i*4+3])<<8)
		out[i] = (float64(l) + float64(r)) / 2 / 32768.0
	}
	return out
}
