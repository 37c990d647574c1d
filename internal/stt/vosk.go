package stt

import (
	"encoding/json"
	"fmt"
	"os"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/inventory-voice-lab/internal/logging"
)

// Model wraps a loaded Vosk model. Loading is expensive; one model is shared
// by all recognizers.
type Model struct {
	m *vosk.VoskModel
}

// LoadModel loads the recognition model from path. A missing model is a
// startup error; the process must refuse to serve without one.
func LoadModel(path string) (*Model, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("recognition model not found at %q: %w", path, err)
	}
	m, err := vosk.NewModel(path)
	if err != nil {
		return nil, fmt.Errorf("load recognition model: %w", err)
	}
	logging.Infow("recognition model loaded", "path", path)
	return &Model{m: m}, nil
}

// NewRecognizer creates a recognizer for one connection's audio stream.
func (m *Model) NewRecognizer(sampleRate int) (Recognizer, error) {
	rec, err := vosk.NewRecognizer(m.m, float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("create recognizer: %w", err)
	}
	return &voskRecognizer{rec: rec}, nil
}

// Free releases the underlying model.
func (m *Model) Free() { m.m.Free() }

type voskRecognizer struct {
	rec *vosk.VoskRecognizer
}

func (r *voskRecognizer) AcceptWaveform(buf []byte) (bool, error) {
	return r.rec.AcceptWaveform(buf) != 0, nil
}

func (r *voskRecognizer) Result() string {
	return textField(r.rec.Result(), "text")
}

func (r *voskRecognizer) PartialResult() string {
	return textField(r.rec.PartialResult(), "partial")
}

func (r *voskRecognizer) FinalResult() string {
	return textField(r.rec.FinalResult(), "text")
}

func (r *voskRecognizer) Close() error {
	r.rec.Free()
	return nil
}

// textField pulls a single string field out of Vosk's JSON result payloads,
// e.g. {"text": "entrar al espacio cocina"}.
func textField(raw, key string) string {
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logging.Debugw("unparseable recognizer payload", "payload", raw, "err", err)
		return ""
	}
	if v, ok := out[key].(string); ok {
		return v
	}
	return ""
}
