// ABOUTME: Opus transport frame decoder
// ABOUTME: Decodes opus frames from the ingest stream into sample chunks
package decode

import (
	"fmt"

	"github.com/vocalis-audio/vocalis-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrame is the largest frame opus allows (120 ms at 48 kHz).
const maxOpusFrame = 5760

// OpusDecoder decodes mono opus transport frames into sample chunks.
// Unlike Decoder it is stateful: opus carries prediction state across
// frames, so one instance must see the whole stream in order.
type OpusDecoder struct {
	decoder    *opus.Decoder
	sampleRate int
}

// NewOpus creates an opus frame decoder at the given stream rate.
func NewOpus(sampleRate int) (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(sampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("decode: failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder:    dec,
		sampleRate: sampleRate,
	}, nil
}

// DecodeFrame converts one opus frame into a rate-tagged chunk ready
// for the engine queue.
func (d *OpusDecoder) DecodeFrame(frame []byte) (audio.Chunk, error) {
	pcm := make([]int16, maxOpusFrame)

	n, err := d.decoder.Decode(frame, pcm)
	if err != nil {
		return audio.Chunk{}, fmt.Errorf("decode: opus frame failed: %w", err)
	}

	return audio.NewRateChunk(pcm[:n], d.sampleRate), nil
}
