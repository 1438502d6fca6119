// ABOUTME: Tests for the opus frame decoder
// ABOUTME: Tests decoder creation and invalid frame handling
package decode

import "testing"

func TestNewOpus(t *testing.T) {
	dec, err := NewOpus(48000)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if dec == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewOpus_InvalidRate(t *testing.T) {
	// Opus only supports 8/12/16/24/48 kHz.
	if _, err := NewOpus(44100); err == nil {
		t.Fatal("expected error for unsupported rate")
	}
}

func TestOpusDecodeGarbageFrame(t *testing.T) {
	dec, err := NewOpus(16000)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if _, err := dec.DecodeFrame([]byte{0xde, 0xad, 0xbe, 0xef}); err == nil {
		t.Fatal("expected error for garbage frame")
	}
}
