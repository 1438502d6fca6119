// ABOUTME: Chunk decoder and normalizer
// ABOUTME: Converts chunk variants to floating buffers at the output rate
package decode

import (
	"errors"
	"fmt"

	"github.com/vocalis-audio/vocalis-go/pkg/audio"
)

// ErrUnknownChunk is returned for chunk shapes outside the closed
// variant set. Callers skip the chunk and continue with the queue.
var ErrUnknownChunk = errors.New("decode: unknown chunk shape")

// Decoder normalizes chunks into floating buffers at a fixed output
// rate. Each Decode call is a pure, stateless transformation.
type Decoder struct {
	outputRate int
}

// New creates a decoder bound to the output device rate.
func New(outputRate int) (*Decoder, error) {
	if outputRate <= 0 {
		return nil, fmt.Errorf("decode: invalid output rate %d", outputRate)
	}
	return &Decoder{outputRate: outputRate}, nil
}

// OutputRate returns the rate all decoded buffers are produced at.
func (d *Decoder) OutputRate() int {
	return d.outputRate
}

// Decode converts one chunk into a normalized buffer at the output
// rate. Malformed payloads with an odd byte count are padded rather
// than rejected; unrecognized shapes return an error so the caller can
// skip the chunk without aborting the queue.
func (d *Decoder) Decode(c audio.Chunk) (audio.DecodedBuffer, error) {
	var pcm []int16

	switch c.Kind {
	case audio.ChunkPCMBytes:
		pcm = parseS16LE(c.Payload)
	case audio.ChunkSamples:
		pcm = c.Samples
	case audio.ChunkSamplesRate:
		if c.SampleRate <= 0 {
			return audio.DecodedBuffer{}, fmt.Errorf("decode: invalid sample rate %d", c.SampleRate)
		}
		pcm = c.Samples
	default:
		return audio.DecodedBuffer{}, fmt.Errorf("%w: %s", ErrUnknownChunk, c.Kind)
	}

	samples := normalize(pcm)

	srcRate := c.Rate()
	if srcRate != d.outputRate {
		samples = Resample(samples, srcRate, d.outputRate)
	}

	return audio.DecodedBuffer{
		Samples:    samples,
		SampleRate: d.outputRate,
	}, nil
}

// parseS16LE unpacks little-endian signed 16-bit samples. An odd
// trailing byte is padded with a zero high byte instead of failing.
func parseS16LE(data []byte) []int16 {
	if len(data)%2 != 0 {
		data = append(data[:len(data):len(data)], 0)
	}

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
	}
	return samples
}

// normalize converts 16-bit samples to floats in [-1, 1].
func normalize(pcm []int16) []float64 {
	out := make([]float64, len(pcm))
	for i, s := range pcm {
		out[i] = float64(s) / 32768.0
	}
	return out
}
