package media

import (
	"math"

	"github.com/inventory-voice-lab/internal/logging"
)

// Resampler converts inbound audio frames of arbitrary sample rate and
// channel layout to mono s16le at the target rate. The source format is
// observed lazily from the first frame; when it already matches the target
// the resampler is a pass-through for the connection's lifetime.
type Resampler struct {
	targetRate  int
	src         *AudioFormat
	passthrough bool
}

func NewResampler(targetRate int) *Resampler {
	if targetRate <= 0 {
		targetRate = TargetSampleRate
	}
	return &Resampler{targetRate: targetRate}
}

// Resample returns the converted frame. ok is false when the conversion
// yields no samples; callers skip such frames, they are not errors.
func (r *Resampler) Resample(f AudioFrame) (out AudioFrame, ok bool) {
	if r.src == nil {
		src := f.Format
		if src.Channels <= 0 {
			src.Channels = 1
		}
		if src.SampleRate <= 0 {
			src.SampleRate = r.targetRate
		}
		r.src = &src
		r.passthrough = src.Channels == 1 && src.SampleRate == r.targetRate
		logging.Infow("resampler initialized",
			"src_rate", src.SampleRate, "src_channels", src.Channels,
			"target_rate", r.targetRate, "passthrough", r.passthrough)
	}

	if len(f.PCM) == 0 {
		return AudioFrame{}, false
	}
	if r.passthrough {
		f.Format = AudioFormat{SampleRate: r.targetRate, Channels: 1}
		return f, true
	}

	x := int16ToFloat32(f.PCM)
	if r.src.Channels > 1 {
		x = downmixInterleaved(x, r.src.Channels)
	}
	if r.src.SampleRate != r.targetRate {
		x = resampleLinear(x, r.src.SampleRate, r.targetRate)
	}
	if len(x) == 0 {
		return AudioFrame{}, false
	}
	return AudioFrame{
		PCM:    float32ToInt16(x),
		PTS:    f.PTS,
		Format: AudioFormat{SampleRate: r.targetRate, Channels: 1},
	}, true
}

func int16ToFloat32(in []int16) []float32 {
	out := make([]float32, len(in))
	const scale = 1.0 / 32768.0
	for i, v := range in {
		out[i] = float32(v) * scale
	}
	return out
}

func float32ToInt16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		s := float64(v) * 32767.0
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		out[i] = int16(s)
	}
	return out
}

func downmixInterleaved(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	nFrames := len(in) / channels
	out := make([]float32, nFrames)
	for i := 0; i < nFrames; i++ {
		sum := 0.0
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += float64(in[base+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

func resampleLinear(in []float32, inSR, outSR int) []float32 {
	if inSR == outSR || len(in) == 0 {
		return in
	}
	ratio := float64(outSR) / float64(inSR)
	outN := int(math.Floor(float64(len(in)) * ratio))
	out := make([]float32, outN)
	for i := 0; i < outN; i++ {
		src := float64(i) / ratio
		i0 := int(math.Floor(src))
		i1 := i0 + 1
		if i0 >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		if i1 >= len(in) {
			out[i] = in[i0]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i1]*a
	}
	return out
}
