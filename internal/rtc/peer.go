// Package rtc adapts the WebRTC transport to the media pipeline: it turns
// remote tracks into pollable frame sources, answers signaling offers, and
// forwards the session's outbound events back over the signaling channel.
package rtc

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/inventory-voice-lab/internal/logging"
	"github.com/inventory-voice-lab/internal/session"
)

// Peer wraps one peer connection and wires its tracks into a session.
type Peer struct {
	pc   *webrtc.PeerConnection
	sess *session.Session
}

// NewPeer builds a peer connection whose remote tracks feed sess. onClosed
// fires once when the connection fails or closes.
func NewPeer(iceURLs []string, sess *session.Session, onClosed func()) (*Peer, error) {
	cfg := webrtc.Configuration{}
	if len(iceURLs) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: iceURLs}}
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	p := &Peer{pc: pc, sess: sess}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		logging.Infow("track received", "kind", track.Kind().String(), "codec", track.Codec().MimeType, "conn.id", sess.ID)
		switch track.Kind() {
		case webrtc.RTPCodecTypeAudio:
			src, err := newOpusAudioSource(track)
			if err != nil {
				logging.Errorw("unsupported audio track", "codec", track.Codec().MimeType, "err", err)
				return
			}
			sess.HandleAudioTrack(src)
		case webrtc.RTPCodecTypeVideo:
			sess.HandleVideoTrack(newVP8VideoSource(track))
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logging.Infow("connection state changed", "state", state.String(), "conn.id", sess.ID)
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			onClosed()
		}
	})

	return p, nil
}

// HandleOffer applies the remote offer and returns the complete local
// answer. Candidates are gathered before returning so the answer is
// self-contained.
func (p *Peer) HandleOffer(sdp string) (string, error) {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return "", fmt.Errorf("set remote description: %w", err)
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("create answer: %w", err)
	}
	gathered := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}
	<-gathered
	return p.pc.LocalDescription().SDP, nil
}

// AddICECandidate applies a remote candidate.
func (p *Peer) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return p.pc.AddICECandidate(candidate)
}

// Close tears the peer connection down. Track readers observe io.EOF.
func (p *Peer) Close() error {
	return p.pc.Close()
}
