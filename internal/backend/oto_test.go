// ABOUTME: Tests for backend sample conversion helpers
// ABOUTME: Tests s16le packing, stereo downmix and rate adjustment
package backend

import (
	"math"
	"testing"
)

func TestToS16LE(t *testing.T) {
	b := toS16LE([]float64{0, 0.5, -0.5})

	if len(b) != 6 {
		t.Fatalf("expected 6 bytes, got %d", len(b))
	}

	first := int16(uint16(b[0]) | uint16(b[1])<<8)
	if first != 0 {
		t.Errorf("expected 0, got %d", first)
	}

	second := int16(uint16(b[2]) | uint16(b[3])<<8)
	if second != int16(0.5*32767) {
		t.Errorf("expected %d, got %d", int16(0.5*32767), second)
	}
}

func TestToS16LEClamps(t *testing.T) {
	b := toS16LE([]float64{2.0, -2.0})

	hi := int16(uint16(b[0]) | uint16(b[1])<<8)
	lo := int16(uint16(b[2]) | uint16(b[3])<<8)

	if hi != 32767 {
		t.Errorf("expected clamp to 32767, got %d", hi)
	}
	if lo != -32767 {
		t.Errorf("expected clamp to -32767, got %d", lo)
	}
}

func TestDownmixStereo(t *testing.T) {
	// One frame: left = 16384, right = 0 -> mono 8192/32768.
	pcm := []byte{0x00, 0x40, 0x00, 0x00}

	mono := downmixStereo(pcm)

	if len(mono) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(mono))
	}

	if math.Abs(mono[0]-0.25) > 1e-9 {
		t.Errorf("expected 0.25, got %v", mono[0])
	}
}

func TestPlaybackSamplesRate(t *testing.T) {
	src := make([]float64, 1000)

	out := playbackSamples(src, 2.0, 16000)
	if len(out) != 500 {
		t.Errorf("rate 2.0: expected 500 samples, got %d", len(out))
	}

	out = playbackSamples(src, 1.0, 16000)
	if len(out) != 1000 {
		t.Errorf("rate 1.0: expected passthrough, got %d", len(out))
	}
}

func TestSourceIDString(t *testing.T) {
	id := SourceID{Kind: KindRaw, Seq: 7}
	if id.String() != "raw-7" {
		t.Errorf("expected raw-7, got %s", id.String())
	}

	id = SourceID{Kind: KindClip, Seq: 2}
	if id.String() != "clip-2" {
		t.Errorf("expected clip-2, got %s", id.String())
	}
}
