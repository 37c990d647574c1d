// Package media implements the per-connection media pipeline primitives: the
// cached-video-frame capture slot, the audio resampler feeding the speech
// decoder, and the accumulator that turns resampled frames into decode steps.
package media

import (
	"context"
	"image"
)

// TargetSampleRate is the sample rate the speech decoder operates at. All
// inbound audio is normalized to mono signed 16-bit at this rate.
const TargetSampleRate = 16000

// AudioFormat describes the layout of an audio frame's samples.
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// AudioFrame carries interleaved signed 16-bit samples with a presentation
// timestamp in the source clock. Frames are transient; nothing retains them
// past the pipeline step that consumes them.
type AudioFrame struct {
	PCM    []int16
	PTS    int64
	Format AudioFormat
}

// VideoFrame carries a decoded image and its presentation timestamp.
type VideoFrame struct {
	Image image.Image
	PTS   int64
}

// AudioSource is a pollable source of timestamped audio frames. Next blocks
// until a frame is available, the source terminates (io.EOF), or ctx is
// canceled.
type AudioSource interface {
	Next(ctx context.Context) (AudioFrame, error)
}

// VideoSource is the video counterpart of AudioSource.
type VideoSource interface {
	Next(ctx context.Context) (VideoFrame, error)
}
