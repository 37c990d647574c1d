package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Speech    SpeechConfig
	Media     MediaConfig
	Signaling SignalingConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogLevel    string
}

type DatabaseConfig struct {
	Path string
}

type SpeechConfig struct {
	ModelPath      string
	SampleRate     int
	DecodeBytes    int
	DebugAudioDir  string
	DebugAudioSave bool
}

type MediaConfig struct {
	CaptureDir      string
	VideoDir        string
	CaptureCooldown time.Duration
	ReadyTimeout    time.Duration
}

type SignalingConfig struct {
	URL        string
	ICEServers []string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "8080"),
			Environment: getEnv("GO_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "data/inventory.db"),
		},
		Speech: SpeechConfig{
			ModelPath:      getEnv("VOSK_MODEL_PATH", "model"),
			SampleRate:     getEnvAsInt("STT_SAMPLE_RATE", 16000),
			DecodeBytes:    getEnvAsInt("STT_DECODE_BYTES", 9600),
			DebugAudioDir:  getEnv("DEBUG_AUDIO_DIR", "data/debug_audio"),
			DebugAudioSave: getEnvAsBool("DEBUG_AUDIO_SAVE", false),
		},
		Media: MediaConfig{
			CaptureDir:      getEnv("CAPTURE_DIR", "data/images"),
			VideoDir:        getEnv("VIDEO_DIR", "data/videos"),
			CaptureCooldown: time.Duration(getEnvAsInt("CAPTURE_COOLDOWN_MS", 2000)) * time.Millisecond,
			ReadyTimeout:    time.Duration(getEnvAsInt("VIDEO_READY_TIMEOUT_MS", 5000)) * time.Millisecond,
		},
		Signaling: SignalingConfig{
			URL:        getEnv("SIGNALING_URL", "ws://localhost:3000/ws"),
			ICEServers: getEnvAsSlice("ICE_SERVERS", []string{"stun:stun.l.google.com:19302"}),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return fallback
}
