// ABOUTME: WebSocket client for the speech stream
// ABOUTME: Handles connection, frame parsing and message routing
package ingest

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vocalis-audio/vocalis-go/pkg/audio"
	"github.com/vocalis-audio/vocalis-go/pkg/audio/decode"
)

// Binary frame type tags (first byte of a binary message).
const (
	frameTypePCM  = 0 // big-endian uint32 source rate, then packed s16le
	frameTypeOpus = 1 // one opus transport frame
)

// pcmHeaderLen is the tag byte plus the rate prefix.
const pcmHeaderLen = 5

// ControlKind tags a control message from the synth server.
type ControlKind int

const (
	// ControlFlush drops queued-but-unscheduled audio.
	ControlFlush ControlKind = iota

	// ControlStop cancels everything in flight.
	ControlStop
)

// Transcript is one recognized utterance from the server.
type Transcript struct {
	Text  string  `json:"text"`
	Final bool    `json:"final"`
	Score float64 `json:"score"`
}

// Config holds client configuration.
type Config struct {
	ServerAddr string
	Name       string

	// Token is attached as an Authorization bearer header when set.
	Token string

	// OpusRate is the decode rate for opus frames (default 48000).
	OpusRate int
}

// Client receives the speech stream over a WebSocket and routes it to
// channels: decoded raw chunks, whole encoded clips, transcripts, and
// control messages. The caller drains the channels; the client never
// touches the playback engine directly.
type Client struct {
	config   Config
	clientID string
	conn     *websocket.Conn
	opus     *decode.OpusDecoder
	mu       sync.RWMutex

	Chunks      chan audio.Chunk
	Clips       chan []byte
	Transcripts chan Transcript
	Control     chan ControlKind

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// message is the JSON envelope for text frames.
type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// clipPlay is the payload of clip/play.
type clipPlay struct {
	Data string `json:"data"` // base64 mp3
}

// NewClient creates a client. The connection is not opened until
// Connect.
func NewClient(config Config) (*Client, error) {
	if config.OpusRate == 0 {
		config.OpusRate = 48000
	}

	opus, err := decode.NewOpus(config.OpusRate)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:      config,
		clientID:    uuid.New().String(),
		opus:        opus,
		Chunks:      make(chan audio.Chunk, 100),
		Clips:       make(chan []byte, 10),
		Transcripts: make(chan Transcript, 10),
		Control:     make(chan ControlKind, 10),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// ClientID returns the identity sent in the hello message.
func (c *Client) ClientID() string {
	return c.clientID
}

// Connect dials the synth server, performs the hello exchange and
// starts the reader.
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: "/stream"}
	log.Printf("Ingest: connecting to %s", u.String())

	header := http.Header{}
	if c.config.Token != "" {
		header.Set("Authorization", "Bearer "+c.config.Token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.hello(); err != nil {
		c.Close()
		return fmt.Errorf("hello failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// hello identifies the client and waits for the server acknowledgment.
func (c *Client) hello() error {
	payload, err := json.Marshal(map[string]string{
		"client_id": c.clientID,
		"name":      c.config.Name,
	})
	if err != nil {
		return err
	}

	if err := c.sendJSON(message{Type: "client/hello", Payload: payload}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if msg.Type != "server/hello" {
		return fmt.Errorf("expected server/hello, got %s", msg.Type)
	}

	log.Printf("Ingest: hello complete")
	return nil
}

func (c *Client) sendJSON(msg message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming frames until the connection
// drops or Close is called.
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("Ingest: read error: %v", err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinary(data)
		case websocket.TextMessage:
			c.handleJSON(data)
		}
	}
}

// handleBinary parses one audio frame and forwards the chunk.
func (c *Client) handleBinary(data []byte) {
	chunk, err := parseBinaryFrame(data, c.opus)
	if err != nil {
		log.Printf("Ingest: dropping frame: %v", err)
		return
	}

	select {
	case c.Chunks <- chunk:
	case <-c.ctx.Done():
	}
}

// parseBinaryFrame converts one binary wire frame to a chunk. PCM
// frames carry their source rate; opus frames go through the stateful
// decoder.
func parseBinaryFrame(data []byte, opus *decode.OpusDecoder) (audio.Chunk, error) {
	if len(data) < 1 {
		return audio.Chunk{}, fmt.Errorf("empty frame")
	}

	switch data[0] {
	case frameTypePCM:
		if len(data) < pcmHeaderLen {
			return audio.Chunk{}, fmt.Errorf("pcm frame too short: %d bytes", len(data))
		}
		rate := int(binary.BigEndian.Uint32(data[1:pcmHeaderLen]))
		if rate <= 0 {
			return audio.Chunk{}, fmt.Errorf("pcm frame with invalid rate %d", rate)
		}
		payload := data[pcmHeaderLen:]
		if rate == audio.DefaultSampleRate {
			return audio.NewPCMChunk(payload), nil
		}
		return audio.NewRateChunk(unpackS16LE(payload), rate), nil

	case frameTypeOpus:
		chunk, err := opus.DecodeFrame(data[1:])
		if err != nil {
			return audio.Chunk{}, fmt.Errorf("opus frame: %w", err)
		}
		return chunk, nil

	default:
		return audio.Chunk{}, fmt.Errorf("unknown frame type %d", data[0])
	}
}

// unpackS16LE converts packed little-endian bytes to samples. A
// trailing odd byte is dropped; the synth never splits a sample.
func unpackS16LE(payload []byte) []int16 {
	n := len(payload) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}
	return samples
}

// handleJSON routes text messages.
func (c *Client) handleJSON(data []byte) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Ingest: failed to parse message: %v", err)
		return
	}

	switch msg.Type {
	case "clip/play":
		var clip clipPlay
		if err := json.Unmarshal(msg.Payload, &clip); err != nil {
			log.Printf("Ingest: bad clip/play payload: %v", err)
			return
		}
		payload, err := base64.StdEncoding.DecodeString(clip.Data)
		if err != nil {
			log.Printf("Ingest: bad clip encoding: %v", err)
			return
		}
		select {
		case c.Clips <- payload:
		case <-c.ctx.Done():
		}

	case "speech/transcript":
		var tr Transcript
		if err := json.Unmarshal(msg.Payload, &tr); err != nil {
			log.Printf("Ingest: bad transcript payload: %v", err)
			return
		}
		select {
		case c.Transcripts <- tr:
		case <-c.ctx.Done():
		}

	case "stream/flush":
		select {
		case c.Control <- ControlFlush:
		case <-c.ctx.Done():
		}

	case "stream/stop":
		select {
		case c.Control <- ControlStop:
		case <-c.ctx.Done():
		}

	default:
		log.Printf("Ingest: unknown message type: %s", msg.Type)
	}
}

// Close closes the connection. Safe to call twice.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Ingest: connection closed")
	}
}

// IsConnected returns connection status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
