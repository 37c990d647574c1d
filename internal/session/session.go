// Package session owns one connection's media command pipeline: the video
// and audio consumer loops, the readiness gate between them, and the
// dispatcher that turns transcriptions into inventory mutations and
// outbound events.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inventory-voice-lab/internal/inventory"
	"github.com/inventory-voice-lab/internal/logging"
	"github.com/inventory-voice-lab/internal/media"
	"github.com/inventory-voice-lab/internal/nlu"
	"github.com/inventory-voice-lab/internal/stt"
)

const transientBackoff = 100 * time.Millisecond

// Config carries the per-session tunables.
type Config struct {
	CaptureDir      string
	CaptureCooldown time.Duration
	ReadyTimeout    time.Duration
	DecodeBytes     int
	DebugAudioDir   string
	DebugAudioSave  bool
}

// Session is the per-connection state: its own frame cache, audio pipeline,
// readiness gate, and outbound event queue. One Session serves exactly one
// transport connection and is discarded on close.
type Session struct {
	ID string

	cfg         Config
	inv         *inventory.Service
	recognizers stt.Factory
	dispatcher  *Dispatcher
	events      chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	frames       *media.FrameCache
	pendingAudio bool

	ready     chan struct{}
	readyOnce sync.Once
}

func New(cfg Config, inv *inventory.Service, parser *nlu.Parser, recognizers stt.Factory) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event, 32)
	s := &Session{
		ID:          uuid.NewString(),
		cfg:         cfg,
		inv:         inv,
		recognizers: recognizers,
		events:      events,
		ctx:         ctx,
		cancel:      cancel,
		ready:       make(chan struct{}),
	}
	s.dispatcher = NewDispatcher(parser, inv, events)
	return s
}

// Events is the outbound notification queue consumed by the signaling
// layer. It is closed when the session closes.
func (s *Session) Events() <-chan Event { return s.events }

// Dispatcher exposes the command dispatcher, mainly for the HTTP boundary
// and tests.
func (s *Session) Dispatcher() *Dispatcher { return s.dispatcher }

// HandleVideoTrack binds the frame cache to the stream, starts the video
// consumer loop, and opens the readiness gate. An audio pipeline that
// started earlier picks up the frame cache reference immediately.
func (s *Session) HandleVideoTrack(src media.VideoSource) {
	s.mu.Lock()
	if s.frames != nil {
		s.mu.Unlock()
		logging.Warnw("ignoring extra video track", logging.ConnFields(s.ID)...)
		return
	}
	fc := media.NewFrameCache(s.cfg.CaptureDir, s.cfg.CaptureCooldown)
	s.frames = fc
	hadPending := s.pendingAudio
	s.pendingAudio = false
	s.mu.Unlock()

	s.dispatcher.SetFrameCache(fc)
	s.readyOnce.Do(func() { close(s.ready) })
	if hadPending {
		logging.Infow("audio pipeline bound to frame cache", logging.ConnFields(s.ID)...)
	}

	s.wg.Add(1)
	go s.videoLoop(src, fc)
	logging.Infow("video track started", logging.ConnFields(s.ID)...)
}

// HandleAudioTrack starts the audio pipeline. When the video track has not
// arrived yet the pipeline still starts; a bounded wait task logs whether
// the frame cache ever became available. After the timeout, capture
// commands fail with a typed error instead of blocking.
func (s *Session) HandleAudioTrack(src media.AudioSource) {
	s.mu.Lock()
	waiting := s.frames == nil
	if waiting {
		s.pendingAudio = true
	}
	s.mu.Unlock()

	if waiting {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			select {
			case <-s.ready:
			case <-time.After(s.cfg.ReadyTimeout):
				logging.Warnw("video track never arrived; captures will fail",
					"timeout_ms", s.cfg.ReadyTimeout.Milliseconds(), "conn.id", s.ID)
			case <-s.ctx.Done():
			}
		}()
	}

	s.wg.Add(1)
	go s.audioLoop(src)
	logging.Infow("audio track started", "conn.id", s.ID, "waiting_for_video", waiting)
}

func (s *Session) videoLoop(src media.VideoSource, fc *media.FrameCache) {
	defer s.wg.Done()
	for {
		frame, err := src.Next(s.ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || s.ctx.Err() != nil {
				logging.Infow("video stream ended", logging.ConnFields(s.ID)...)
				return
			}
			logging.Warnw("video frame error", "conn.id", s.ID, "err", err)
			time.Sleep(transientBackoff)
			continue
		}
		fc.Update(frame)
	}
}

func (s *Session) audioLoop(src media.AudioSource) {
	defer s.wg.Done()

	rec, err := s.recognizers()
	if err != nil {
		logging.Errorw("failed to create recognizer", "conn.id", s.ID, "err", err)
		return
	}
	defer rec.Close()

	resampler := media.NewResampler(media.TargetSampleRate)
	acc := media.NewAccumulator(s.ID, rec, s.cfg.DecodeBytes, func(text string) {
		s.dispatcher.Dispatch(s.ctx, text)
	})

	var recorder *media.DebugRecorder
	if s.cfg.DebugAudioSave {
		recorder, err = media.NewDebugRecorder(s.cfg.DebugAudioDir, s.ID, media.TargetSampleRate)
		if err != nil {
			logging.Warnw("debug recorder unavailable", "conn.id", s.ID, "err", err)
		}
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logging.Warnw("failed to close debug recording", "conn.id", s.ID, "err", err)
		}
	}()

	for {
		frame, err := src.Next(s.ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || s.ctx.Err() != nil {
				break
			}
			logging.Warnw("audio frame error", "conn.id", s.ID, "err", err)
			time.Sleep(transientBackoff)
			continue
		}
		out, ok := resampler.Resample(frame)
		if !ok {
			continue
		}
		if err := recorder.Write(out.PCM); err != nil {
			logging.Debugw("debug recorder write failed", "conn.id", s.ID, "err", err)
		}
		if err := acc.Push(out); err != nil {
			logging.Warnw("decoder error", "conn.id", s.ID, "err", err)
			time.Sleep(transientBackoff)
		}
	}

	// Residual audio goes through one last decode step before teardown.
	if err := acc.Flush(); err != nil {
		logging.Warnw("final decode failed", "conn.id", s.ID, "err", err)
	}
	logging.Infow("audio stream ended", logging.ConnFields(s.ID)...)
}

// Close signals all loops to stop, waits for them to flush, releases
// resources, and closes the event queue.
func (s *Session) Close() error {
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.frames = nil
	s.pendingAudio = false
	s.mu.Unlock()

	close(s.events)
	logging.Infow("session closed", logging.ConnFields(s.ID)...)
	return nil
}
