package rtc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// Message is the signaling envelope. Every frame on the wire carries an
// event name and an event-specific JSON payload.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound events.
const (
	EventOffer        = "offer"
	EventICECandidate = "ice-candidate"
)

// Outbound events.
const (
	EventAnswer       = "answer"
	EventSessionEvent = "event"
)

type sdpPayload struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type offerPayload struct {
	SenderID string     `json:"senderId"`
	SDP      sdpPayload `json:"sdp"`
}

type answerPayload struct {
	TargetID string     `json:"targetId"`
	SDP      sdpPayload `json:"sdp"`
}

type icePayload struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// SignalClient is a thin client for the signaling server. Reads happen from
// a single goroutine; writes are serialized so the event pump and the answer
// path can share the connection.
type SignalClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// DialSignaling connects to the signaling server, upgrading http schemes to
// their websocket equivalents.
func DialSignaling(ctx context.Context, rawurl string) (*SignalClient, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("parse signaling url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial signaling: %w", err)
	}
	return &SignalClient{conn: conn}, nil
}

// Read blocks for the next inbound message.
func (c *SignalClient) Read() (Message, error) {
	var msg Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Send marshals data and writes it under the given event name.
func (c *SignalClient) Send(event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(Message{Event: event, Data: raw})
}

func (c *SignalClient) Close() error {
	return c.conn.Close()
}
