package main

import (
	"time"

	"github.com/liveinsight/companion/internal/env"
	"github.com/liveinsight/companion/internal/platform"
)

type config struct {
	port string

	whisperServerURL string
	openaiAPIKey     string
	openaiModel      string
	engine           string
	asrPoolSize      int

	backendURL      string
	backendEmail    string
	backendToken    string
	backendPoolSize int

	traceDBURL    string
	debugAudioDir string

	deviceRate   int
	historyLimit int

	profileTier string
	thresholdDB float64
	pauseMs     int
}

func loadConfig() config {
	return config{
		port: env.Str("COMPANION_PORT", "8765"),

		whisperServerURL: env.Str("WHISPER_SERVER_URL", ""),
		openaiAPIKey:     env.Str("OPENAI_API_KEY", ""),
		openaiModel:      env.Str("OPENAI_TRANSCRIBE_MODEL", ""),
		engine:           env.Str("TRANSCRIBE_ENGINE", ""),
		asrPoolSize:      env.Int("ASR_POOL_SIZE", 10),

		backendURL:      env.Str("BACKEND_URL", "http://localhost:8080"),
		backendEmail:    env.Str("BACKEND_EMAIL", ""),
		backendToken:    env.Str("BACKEND_TOKEN", ""),
		backendPoolSize: env.Int("BACKEND_POOL_SIZE", 10),

		traceDBURL:    env.Str("TRACE_DB_URL", ""),
		debugAudioDir: env.Str("DEBUG_AUDIO_DIR", ""),

		deviceRate:   env.Int("CAPTURE_DEVICE_RATE", 16000),
		historyLimit: env.Int("HISTORY_LIMIT", 0),

		profileTier: env.Str("PROFILE_TIER", ""),
		thresholdDB: env.Float("VAD_SPEECH_THRESHOLD_DB", 0),
		pauseMs:     env.Int("VAD_PAUSE_MS", 0),
	}
}

// resolveProfile starts from the OS profile and applies explicit
// overrides. A zero threshold means unset; real thresholds are always
// negative dBFS.
func resolveProfile(cfg config, goos string) platform.Profile {
	p := platform.Resolve(goos)
	if cfg.profileTier != "" {
		if forced, ok := platform.ForTier(platform.Tier(cfg.profileTier)); ok {
			p = forced
		}
	}
	if cfg.thresholdDB != 0 {
		p.EnergyThresholdDB = cfg.thresholdDB
	}
	if cfg.pauseMs > 0 {
		p.Pause = time.Duration(cfg.pauseMs) * time.Millisecond
	}
	return p
}
