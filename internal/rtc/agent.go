package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/inventory-voice-lab/internal/inventory"
	"github.com/inventory-voice-lab/internal/logging"
	"github.com/inventory-voice-lab/internal/nlu"
	"github.com/inventory-voice-lab/internal/session"
	"github.com/inventory-voice-lab/internal/stt"
)

const reconnectBackoff = 3 * time.Second

// Config carries the agent's transport settings.
type Config struct {
	SignalingURL string
	ICEServers   []string
	Session      session.Config
}

// Agent maintains the signaling connection and the active peer. A new offer
// replaces whatever connection came before it; the operator uses one device
// at a time.
type Agent struct {
	cfg         Config
	inv         *inventory.Service
	parser      *nlu.Parser
	recognizers stt.Factory

	mu       sync.Mutex
	peer     *Peer
	sess     *session.Session
	teardown *sync.Once
}

func NewAgent(cfg Config, inv *inventory.Service, parser *nlu.Parser, recognizers stt.Factory) *Agent {
	return &Agent{cfg: cfg, inv: inv, parser: parser, recognizers: recognizers}
}

// Run dials the signaling server and serves messages until ctx ends,
// reconnecting with a fixed backoff when the connection drops.
func (a *Agent) Run(ctx context.Context) error {
	for {
		err := a.serve(ctx)
		a.closeActive()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warnw("signaling connection lost", "url", a.cfg.SignalingURL, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectBackoff):
		}
	}
}

func (a *Agent) serve(ctx context.Context) error {
	client, err := DialSignaling(ctx, a.cfg.SignalingURL)
	if err != nil {
		return err
	}
	defer client.Close()
	logging.Infow("signaling connected", "url", a.cfg.SignalingURL)

	// Unblock the read loop on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-done:
		}
	}()

	for {
		msg, err := client.Read()
		if err != nil {
			return err
		}
		switch msg.Event {
		case EventOffer:
			if err := a.handleOffer(client, msg.Data); err != nil {
				logging.Errorw("offer handling failed", "err", err)
			}
		case EventICECandidate:
			if err := a.handleCandidate(msg.Data); err != nil {
				logging.Warnw("ice candidate rejected", "err", err)
			}
		default:
			logging.Debugw("unhandled signaling event", "event", msg.Event)
		}
	}
}

func (a *Agent) handleOffer(client *SignalClient, data json.RawMessage) error {
	var offer offerPayload
	if err := json.Unmarshal(data, &offer); err != nil {
		return err
	}

	// One active connection: a fresh offer supersedes the previous device.
	a.closeActive()

	sess := session.New(a.cfg.Session, a.inv, a.parser, a.recognizers)
	once := &sync.Once{}
	peer, err := NewPeer(a.cfg.ICEServers, sess, func() {
		once.Do(func() { a.closeConnection(sess) })
	})
	if err != nil {
		sess.Close()
		return err
	}

	a.mu.Lock()
	a.peer = peer
	a.sess = sess
	a.teardown = once
	a.mu.Unlock()

	answer, err := peer.HandleOffer(offer.SDP.SDP)
	if err != nil {
		a.closeActive()
		return err
	}

	go a.pumpEvents(sess, client)

	logging.Infow("session started", "conn.id", sess.ID, "sender", offer.SenderID)
	return client.Send(EventAnswer, answerPayload{
		TargetID: offer.SenderID,
		SDP:      sdpPayload{Type: "answer", SDP: answer},
	})
}

func (a *Agent) handleCandidate(data json.RawMessage) error {
	var ice icePayload
	if err := json.Unmarshal(data, &ice); err != nil {
		return err
	}
	a.mu.Lock()
	peer := a.peer
	a.mu.Unlock()
	if peer == nil {
		return errors.New("no active peer")
	}
	return peer.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     ice.Candidate,
		SDPMid:        ice.SDPMid,
		SDPMLineIndex: ice.SDPMLineIndex,
	})
}

// pumpEvents forwards session events to the client until the session's
// event queue closes.
func (a *Agent) pumpEvents(sess *session.Session, client *SignalClient) {
	for ev := range sess.Events() {
		if err := client.Send(EventSessionEvent, ev); err != nil {
			logging.Warnw("event send failed", "conn.id", sess.ID, "event", ev.Type, "err", err)
		}
	}
}

// closeConnection tears down one specific session's peer, guarding against
// a stale state-change callback firing after a replacement arrived.
func (a *Agent) closeConnection(sess *session.Session) {
	a.mu.Lock()
	if a.sess != sess {
		a.mu.Unlock()
		return
	}
	peer := a.peer
	a.peer, a.sess, a.teardown = nil, nil, nil
	a.mu.Unlock()

	if peer != nil {
		_ = peer.Close()
	}
	sess.Close()
	logging.Infow("session closed", "conn.id", sess.ID)
}

func (a *Agent) closeActive() {
	a.mu.Lock()
	sess, once := a.sess, a.teardown
	a.mu.Unlock()
	if sess == nil || once == nil {
		return
	}
	once.Do(func() { a.closeConnection(sess) })
}
