package media

import (
	"encoding/binary"
	"strings"
	"sync/atomic"

	"github.com/inventory-voice-lab/internal/logging"
)

// Decoder is the incremental speech recognizer contract the accumulator
// drives. AcceptWaveform reports whether the submitted waveform completed an
// utterance; Result then holds the final transcription. PartialResult is the
// in-progress transcription and FinalResult flushes whatever remains.
type Decoder interface {
	AcceptWaveform(buf []byte) (bool, error)
	Result() string
	PartialResult() string
	FinalResult() string
}

// Accumulator buffers resampled mono s16le audio until enough has arrived
// for a decode step, deduplicating frames by presentation timestamp. Final
// transcriptions are handed to onFinal; partials are logged only.
//
// The buffer is cleared after every decode attempt, final or not, trading
// recognition continuity for bounded memory.
type Accumulator struct {
	connID    string
	dec       Decoder
	threshold int
	onFinal   func(text string)

	buf     []byte
	lastPTS int64
	hasPTS  bool

	dupCount    int64
	decodeCount int64
}

// NewAccumulator creates an accumulator that triggers a decode step once
// thresholdBytes of audio are buffered.
func NewAccumulator(connID string, dec Decoder, thresholdBytes int, onFinal func(text string)) *Accumulator {
	if thresholdBytes <= 0 {
		// ~0.3s of s16le mono audio at the target rate.
		thresholdBytes = TargetSampleRate * 2 * 3 / 10
	}
	return &Accumulator{connID: connID, dec: dec, threshold: thresholdBytes, onFinal: onFinal}
}

// Push appends a resampled frame to the buffer and runs a decode step when
// the threshold is reached. A frame whose timestamp equals the previously
// accepted frame's is dropped before touching the buffer. Decoder errors are
// returned for the caller's transient-error handling; the buffer is still
// cleared so a poisoned chunk is not resubmitted forever.
func (a *Accumulator) Push(f AudioFrame) error {
	if a.hasPTS && f.PTS == a.lastPTS {
		atomic.AddInt64(&a.dupCount, 1)
		logging.Debugw("dropping duplicate audio frame", "conn.id", a.connID, "pts", f.PTS)
		return nil
	}
	a.lastPTS = f.PTS
	a.hasPTS = true

	a.buf = append(a.buf, pcmBytes(f.PCM)...)
	if len(a.buf) < a.threshold {
		return nil
	}
	return a.decodeStep()
}

// Flush submits any residual buffered audio as a last decode step and
// dispatches its result, treated as final, if non-empty.
func (a *Accumulator) Flush() error {
	if len(a.buf) > 0 {
		buf := a.buf
		a.buf = nil
		if _, err := a.dec.AcceptWaveform(buf); err != nil {
			return err
		}
	}
	text := strings.TrimSpace(a.dec.FinalResult())
	if text != "" {
		logging.Infow("final transcription (flush)", "conn.id", a.connID, "text", text)
		a.onFinal(text)
	}
	logging.Infow("audio accumulation finished",
		"conn.id", a.connID,
		"decode_steps", atomic.LoadInt64(&a.decodeCount),
		"dup_frames", atomic.LoadInt64(&a.dupCount))
	return nil
}

// BufferedBytes reports the current buffer length. Immediately after a
// decode step this is always zero.
func (a *Accumulator) BufferedBytes() int { return len(a.buf) }

func (a *Accumulator) decodeStep() error {
	buf := a.buf
	a.buf = nil
	atomic.AddInt64(&a.decodeCount, 1)

	durMs := len(buf) * 1000 / (TargetSampleRate * 2)
	final, err := a.dec.AcceptWaveform(buf)
	if err != nil {
		logging.Errorw("decode step failed", logging.AccumFields(a.connID, len(buf), durMs)...)
		return err
	}
	if !final {
		if partial := strings.TrimSpace(a.dec.PartialResult()); partial != "" {
			logging.Debugw("partial transcription", "conn.id", a.connID, "text", partial)
		}
		return nil
	}
	text := strings.TrimSpace(a.dec.Result())
	if text == "" {
		return nil
	}
	logging.Infow("final transcription", "conn.id", a.connID, "text", text)
	a.onFinal(text)
	return nil
}

func pcmBytes(pcm []int16) []byte {
	out := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
