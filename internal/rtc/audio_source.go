package rtc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/hraban/opus"
	"github.com/pion/webrtc/v4"

	"github.com/inventory-voice-lab/internal/media"
)

const (
	opusSampleRate = 48000

	// 120ms at 48kHz, the largest frame Opus produces.
	maxOpusFrameSamples = 5760

	trackReadDeadline = time.Second
)

// opusAudioSource decodes an inbound Opus track into PCM frames at the
// track's native 48kHz rate. Downmix and resampling happen downstream.
type opusAudioSource struct {
	track    *webrtc.TrackRemote
	dec      *opus.Decoder
	channels int
}

func newOpusAudioSource(track *webrtc.TrackRemote) (*opusAudioSource, error) {
	channels := int(track.Codec().Channels)
	if channels == 0 {
		channels = 1
	}
	dec, err := opus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("opus decoder: %w", err)
	}
	return &opusAudioSource{track: track, dec: dec, channels: channels}, nil
}

// Next blocks until a packet decodes or the context ends. Read deadlines on
// the track keep the blocking bounded so cancellation is observed promptly.
func (s *opusAudioSource) Next(ctx context.Context) (media.AudioFrame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return media.AudioFrame{}, err
		}
		_ = s.track.SetReadDeadline(time.Now().Add(trackReadDeadline))
		pkt, _, err := s.track.ReadRTP()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				return media.AudioFrame{}, io.EOF
			}
			return media.AudioFrame{}, fmt.Errorf("read rtp: %w", err)
		}
		if len(pkt.Payload) == 0 {
			continue
		}
		pcm := make([]int16, maxOpusFrameSamples*s.channels)
		n, err := s.dec.Decode(pkt.Payload, pcm)
		if err != nil {
			return media.AudioFrame{}, fmt.Errorf("opus decode: %w", err)
		}
		return media.AudioFrame{
			PCM:    pcm[:n*s.channels],
			PTS:    int64(pkt.Timestamp),
			Format: media.AudioFormat{SampleRate: opusSampleRate, Channels: s.channels},
		}, nil
	}
}
