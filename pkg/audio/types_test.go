// ABOUTME: Tests for audio type definitions
// ABOUTME: Tests chunk validation and buffer duration math
package audio

import "testing"

func TestChunkValidate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   Chunk
		wantErr bool
	}{
		{"pcm bytes", NewPCMChunk([]byte{0x00, 0x7f}), false},
		{"samples", NewSampleChunk([]int16{1, 2, 3}), false},
		{"samples with rate", NewRateChunk([]int16{1}, 24000), false},
		{"zero rate", NewRateChunk([]int16{1}, 0), true},
		{"negative rate", NewRateChunk([]int16{1}, -8000), true},
		{"unknown shape", Chunk{Kind: ChunkKind(99)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChunkRate(t *testing.T) {
	if got := NewPCMChunk(nil).Rate(); got != DefaultSampleRate {
		t.Errorf("expected default rate %d, got %d", DefaultSampleRate, got)
	}

	if got := NewSampleChunk(nil).Rate(); got != DefaultSampleRate {
		t.Errorf("expected default rate %d, got %d", DefaultSampleRate, got)
	}

	if got := NewRateChunk(nil, 48000).Rate(); got != 48000 {
		t.Errorf("expected explicit rate 48000, got %d", got)
	}
}

func TestBufferDuration(t *testing.T) {
	buf := DecodedBuffer{
		Samples:    make([]float64, 24000),
		SampleRate: 48000,
	}

	if d := buf.Duration(); d != 0.5 {
		t.Errorf("expected duration 0.5s, got %v", d)
	}
}

func TestBufferDurationZeroRate(t *testing.T) {
	buf := DecodedBuffer{Samples: make([]float64, 100)}

	if d := buf.Duration(); d != 0 {
		t.Errorf("expected 0 duration for zero rate, got %v", d)
	}
}
