// ABOUTME: Tests for the speech stream client
// ABOUTME: Tests binary frame parsing and JSON message routing
package ingest

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/vocalis-audio/vocalis-go/pkg/audio"
)

func pcmFrame(rate uint32, samples ...int16) []byte {
	frame := make([]byte, pcmHeaderLen+len(samples)*2)
	frame[0] = frameTypePCM
	binary.BigEndian.PutUint32(frame[1:], rate)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(frame[pcmHeaderLen+i*2:], uint16(s))
	}
	return frame
}

func TestParsePCMFrameDefaultRate(t *testing.T) {
	frame := pcmFrame(16000, 100, -200, 300)

	chunk, err := parseBinaryFrame(frame, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	// At the default rate the payload passes through packed.
	if chunk.Kind != audio.ChunkPCMBytes {
		t.Fatalf("expected pcm-bytes chunk, got %s", chunk.Kind)
	}
	if len(chunk.Payload) != 6 {
		t.Errorf("expected 6 payload bytes, got %d", len(chunk.Payload))
	}
}

func TestParsePCMFrameExplicitRate(t *testing.T) {
	frame := pcmFrame(24000, 100, -200)

	chunk, err := parseBinaryFrame(frame, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if chunk.Kind != audio.ChunkSamplesRate {
		t.Fatalf("expected rate-tagged chunk, got %s", chunk.Kind)
	}
	if chunk.SampleRate != 24000 {
		t.Errorf("expected rate 24000, got %d", chunk.SampleRate)
	}
	if len(chunk.Samples) != 2 || chunk.Samples[0] != 100 || chunk.Samples[1] != -200 {
		t.Errorf("unexpected samples %v", chunk.Samples)
	}
}

func TestParseFrameErrors(t *testing.T) {
	cases := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"pcm too short", []byte{frameTypePCM, 0, 0}},
		{"pcm zero rate", pcmFrame(0, 1)},
		{"unknown type", []byte{9, 1, 2, 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseBinaryFrame(tc.frame, nil); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestUnpackS16LE(t *testing.T) {
	payload := []byte{0x00, 0x80, 0xFF, 0x7F, 0x01} // odd trailing byte dropped

	samples := unpackS16LE(payload)
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0] != -32768 || samples[1] != 32767 {
		t.Errorf("unexpected samples %v", samples)
	}
}

// routingClient returns a client suitable for driving handleJSON
// directly, bypassing the network and the opus decoder.
func routingClient() *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		Chunks:      make(chan audio.Chunk, 10),
		Clips:       make(chan []byte, 10),
		Transcripts: make(chan Transcript, 10),
		Control:     make(chan ControlKind, 10),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func TestRouteClipPlay(t *testing.T) {
	c := routingClient()
	defer c.cancel()

	payload := base64.StdEncoding.EncodeToString([]byte("mp3-bytes"))
	c.handleJSON([]byte(`{"type":"clip/play","payload":{"data":"` + payload + `"}}`))

	select {
	case clip := <-c.Clips:
		if string(clip) != "mp3-bytes" {
			t.Errorf("expected decoded clip payload, got %q", clip)
		}
	default:
		t.Fatal("expected a clip on the channel")
	}
}

func TestRouteClipPlayBadEncoding(t *testing.T) {
	c := routingClient()
	defer c.cancel()

	c.handleJSON([]byte(`{"type":"clip/play","payload":{"data":"%%%not-base64"}}`))

	select {
	case <-c.Clips:
		t.Fatal("malformed clip must be dropped")
	default:
	}
}

func TestRouteTranscript(t *testing.T) {
	c := routingClient()
	defer c.cancel()

	c.handleJSON([]byte(`{"type":"speech/transcript","payload":{"text":"hello there","final":true,"score":0.93}}`))

	select {
	case tr := <-c.Transcripts:
		if tr.Text != "hello there" || !tr.Final || tr.Score != 0.93 {
			t.Errorf("unexpected transcript %+v", tr)
		}
	default:
		t.Fatal("expected a transcript on the channel")
	}
}

func TestRouteControl(t *testing.T) {
	c := routingClient()
	defer c.cancel()

	c.handleJSON([]byte(`{"type":"stream/flush"}`))
	c.handleJSON([]byte(`{"type":"stream/stop"}`))

	want := []ControlKind{ControlFlush, ControlStop}
	for i, w := range want {
		select {
		case got := <-c.Control:
			if got != w {
				t.Errorf("control %d: expected %v, got %v", i, w, got)
			}
		default:
			t.Fatalf("expected control message %d", i)
		}
	}
}

func TestRouteUnknownTypeIgnored(t *testing.T) {
	c := routingClient()
	defer c.cancel()

	c.handleJSON([]byte(`{"type":"server/whatever","payload":{}}`))
	c.handleJSON([]byte(`not json at all`))

	select {
	case <-c.Chunks:
		t.Fatal("unexpected chunk")
	case <-c.Clips:
		t.Fatal("unexpected clip")
	case <-c.Control:
		t.Fatal("unexpected control")
	default:
	}
}
