// ABOUTME: Chunk decoding package for the playback pipeline
// ABOUTME: Converts tagged chunk variants to device-rate float buffers
// Package decode converts incoming chunk variants to normalized sample
// buffers at the output device rate.
//
// Supports: packed s16le PCM, typed 16-bit samples (default or explicit
// rate), and Opus transport frames via the stateful OpusDecoder.
//
// All paths output float64 samples in [-1, 1], resampled by linear
// interpolation when the source rate differs from the device rate.
//
// Example:
//
//	dec, err := decode.New(48000)
//	buf, err := dec.Decode(chunk)
package decode
