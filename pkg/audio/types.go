// ABOUTME: Audio type definitions
// ABOUTME: Defines chunk variants, decoded buffers and session defaults
package audio

import "fmt"

// Session defaults. Rates are in Hz, times in seconds.
const (
	// DefaultSampleRate is the assumed source rate for chunks that do
	// not carry an explicit rate (streaming synthesizers emit 16 kHz mono).
	DefaultSampleRate = 16000

	// DefaultLeadTime is the minimum scheduling offset ahead of the
	// device clock, absorbing decode and dispatch latency.
	DefaultLeadTime = 0.1

	// DefaultCrossfade is the anti-click fade window applied at buffer
	// boundaries.
	DefaultCrossfade = 0.005

	// MaxPitchFactor bounds the accepted pitch/speed multiplier range (0, 10].
	MaxPitchFactor = 10.0
)

// ChunkKind tags the accepted chunk shapes. The set is closed: decode
// dispatches on the tag, never on dynamic inspection.
type ChunkKind int

const (
	// ChunkPCMBytes is a packed little-endian signed 16-bit mono payload
	// at DefaultSampleRate.
	ChunkPCMBytes ChunkKind = iota

	// ChunkSamples is a typed 16-bit sample slice at DefaultSampleRate.
	ChunkSamples

	// ChunkSamplesRate is a typed 16-bit sample slice with an explicit rate.
	ChunkSamplesRate
)

// String returns the tag name for logging.
func (k ChunkKind) String() string {
	switch k {
	case ChunkPCMBytes:
		return "pcm-bytes"
	case ChunkSamples:
		return "samples"
	case ChunkSamplesRate:
		return "samples-rate"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Chunk is one arrival unit of raw audio. Exactly one variant shape is
// populated, selected by Kind.
type Chunk struct {
	Kind       ChunkKind
	Payload    []byte  // ChunkPCMBytes
	Samples    []int16 // ChunkSamples, ChunkSamplesRate
	SampleRate int     // ChunkSamplesRate only
}

// NewPCMChunk wraps a packed s16le payload at the default rate.
func NewPCMChunk(payload []byte) Chunk {
	return Chunk{Kind: ChunkPCMBytes, Payload: payload}
}

// NewSampleChunk wraps a 16-bit sample slice at the default rate.
func NewSampleChunk(samples []int16) Chunk {
	return Chunk{Kind: ChunkSamples, Samples: samples}
}

// NewRateChunk wraps a 16-bit sample slice with an explicit source rate.
func NewRateChunk(samples []int16, sampleRate int) Chunk {
	return Chunk{Kind: ChunkSamplesRate, Samples: samples, SampleRate: sampleRate}
}

// Rate returns the source sample rate implied by the chunk variant.
func (c Chunk) Rate() int {
	if c.Kind == ChunkSamplesRate {
		return c.SampleRate
	}
	return DefaultSampleRate
}

// Validate rejects unrecognized shapes before they reach the queue.
func (c Chunk) Validate() error {
	switch c.Kind {
	case ChunkPCMBytes, ChunkSamples:
		return nil
	case ChunkSamplesRate:
		if c.SampleRate <= 0 {
			return fmt.Errorf("chunk: invalid sample rate %d", c.SampleRate)
		}
		return nil
	default:
		return fmt.Errorf("chunk: unrecognized shape %s", c.Kind)
	}
}

// DecodedBuffer holds normalized floating samples in [-1, 1] at the
// output device rate. Buffers are not mutated after decode.
type DecodedBuffer struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the buffer length in seconds at its sample rate.
func (b DecodedBuffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}
