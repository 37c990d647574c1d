package rtc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"time"

	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"
	xvp8 "golang.org/x/image/vp8"

	"github.com/inventory-voice-lab/internal/logging"
	"github.com/inventory-voice-lab/internal/media"
)

// vp8VideoSource reassembles VP8 RTP packets into frames and decodes
// keyframes only. Delta frames need reference-frame state the still-image
// decoder does not carry, and a keyframe every second or two is plenty to
// keep the capture cache fresh.
type vp8VideoSource struct {
	track *webrtc.TrackRemote

	buf      bytes.Buffer
	ts       uint32
	haveTS   bool
	dropping bool
}

func newVP8VideoSource(track *webrtc.TrackRemote) *vp8VideoSource {
	return &vp8VideoSource{track: track}
}

// Next blocks until a complete keyframe decodes or the context ends.
func (s *vp8VideoSource) Next(ctx context.Context) (media.VideoFrame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return media.VideoFrame{}, err
		}
		_ = s.track.SetReadDeadline(time.Now().Add(trackReadDeadline))
		pkt, _, err := s.track.ReadRTP()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				return media.VideoFrame{}, io.EOF
			}
			return media.VideoFrame{}, fmt.Errorf("read rtp: %w", err)
		}

		var depkt codecs.VP8Packet
		payload, err := depkt.Unmarshal(pkt.Payload)
		if err != nil || len(payload) == 0 {
			continue
		}

		// A timestamp change means a new frame; anything buffered from the
		// previous one is incomplete and gets discarded.
		if !s.haveTS || pkt.Timestamp != s.ts {
			s.buf.Reset()
			s.ts = pkt.Timestamp
			s.haveTS = true
			// Keyframe bit lives in the first payload byte of the frame.
			s.dropping = payload[0]&0x01 != 0
		}
		if s.dropping {
			continue
		}
		s.buf.Write(payload)
		if !pkt.Marker {
			continue
		}

		frame := s.buf.Bytes()
		img, err := decodeVP8Keyframe(frame)
		s.buf.Reset()
		s.haveTS = false
		if err != nil {
			logging.Debugw("keyframe decode failed", "bytes", len(frame), "err", err)
			continue
		}
		return media.VideoFrame{Image: img, PTS: int64(pkt.Timestamp)}, nil
	}
}

func decodeVP8Keyframe(frame []byte) (image.Image, error) {
	dec := xvp8.NewDecoder()
	dec.Init(bytes.NewReader(frame), len(frame))
	hdr, err := dec.DecodeFrameHeader()
	if err != nil {
		return nil, err
	}
	if !hdr.KeyFrame {
		return nil, errors.New("not a keyframe")
	}
	return dec.DecodeFrame()
}
