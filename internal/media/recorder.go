package media

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/inventory-voice-lab/internal/logging"
)

// DebugRecorder writes the resampled mono stream of one connection to a WAV
// file for offline inspection. It is optional; a nil recorder is a no-op.
type DebugRecorder struct {
	f    *os.File
	enc  *wav.Encoder
	path string
	rate int
}

// NewDebugRecorder opens a timestamp-named WAV file under dir.
func NewDebugRecorder(dir, connID string, sampleRate int) (*DebugRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	ts := time.Now().UTC().Format("20060102T150405.000Z")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.wav", ts, connID))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	logging.Infow("debug audio recording started", "path", path, "conn.id", connID)
	return &DebugRecorder{f: f, enc: enc, path: path, rate: sampleRate}, nil
}

// Write appends mono s16 samples to the recording.
func (r *DebugRecorder) Write(pcm []int16) error {
	if r == nil || len(pcm) == 0 {
		return nil
	}
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	return r.enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: r.rate},
		Data:           data,
		SourceBitDepth: 16,
	})
}

// Close finalizes the WAV header and closes the file.
func (r *DebugRecorder) Close() error {
	if r == nil {
		return nil
	}
	if err := r.enc.Close(); err != nil {
		_ = r.f.Close()
		return err
	}
	logging.Infow("debug audio recording closed", "path", r.path)
	return r.f.Close()
}
