package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/inventory-voice-lab/internal/config"
	"github.com/inventory-voice-lab/internal/httpapi"
	"github.com/inventory-voice-lab/internal/inventory"
	"github.com/inventory-voice-lab/internal/logging"
	"github.com/inventory-voice-lab/internal/nlu"
	"github.com/inventory-voice-lab/internal/rtc"
	"github.com/inventory-voice-lab/internal/session"
	"github.com/inventory-voice-lab/internal/stt"
)

func main() {
	sugar := logging.Init()
	if sugar == nil {
		l, _ := zap.NewProduction()
		defer l.Sync()
		sugar = l.Sugar()
	}

	cfg := config.Load()

	db, err := inventory.Open(cfg.Database.Path)
	if err != nil {
		sugar.Fatalf("open database: %v", err)
	}
	inv, err := inventory.NewService(db, cfg.Media.VideoDir)
	if err != nil {
		sugar.Fatalf("inventory service: %v", err)
	}
	sugar.Infow("inventory store ready", "path", cfg.Database.Path)

	model, err := stt.LoadModel(cfg.Speech.ModelPath)
	if err != nil {
		sugar.Fatalf("load speech model: %v", err)
	}
	defer model.Free()
	sugar.Infow("speech model loaded", "path", cfg.Speech.ModelPath, "sample_rate", cfg.Speech.SampleRate)

	recognizers := func() (stt.Recognizer, error) {
		return model.NewRecognizer(cfg.Speech.SampleRate)
	}
	parser := nlu.NewParser()

	agent := rtc.NewAgent(rtc.Config{
		SignalingURL: cfg.Signaling.URL,
		ICEServers:   cfg.Signaling.ICEServers,
		Session: session.Config{
			CaptureDir:      cfg.Media.CaptureDir,
			CaptureCooldown: cfg.Media.CaptureCooldown,
			ReadyTimeout:    cfg.Media.ReadyTimeout,
			DecodeBytes:     cfg.Speech.DecodeBytes,
			DebugAudioDir:   cfg.Speech.DebugAudioDir,
			DebugAudioSave:  cfg.Speech.DebugAudioSave,
		},
	}, inv, parser, recognizers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := httpapi.NewApp(inv)
	go func() {
		sugar.Infow("http api listening", "port", cfg.App.Port)
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			sugar.Fatalf("http api: %v", err)
		}
	}()

	go func() {
		if err := agent.Run(ctx); err != nil && ctx.Err() == nil {
			sugar.Errorw("agent stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	sugar.Infow("shutdown signal received, closing resources")

	cancel()
	if err := app.Shutdown(); err != nil {
		sugar.Warnf("http shutdown error: %v", err)
	}

	if l := zap.L(); l != nil {
		_ = l.Sync()
	}
	sugar.Info("shutdown complete")
}
