package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/liveinsight/companion/internal/answer"
	"github.com/liveinsight/companion/internal/audio"
	"github.com/liveinsight/companion/internal/backend"
	"github.com/liveinsight/companion/internal/hotkey"
	"github.com/liveinsight/companion/internal/session"
	"github.com/liveinsight/companion/internal/trace"
	"github.com/liveinsight/companion/internal/transcribe"
	"github.com/liveinsight/companion/internal/ui"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := loadConfig()
	profile := resolveProfile(cfg, runtime.GOOS)

	// Transcription engines
	engines := map[string]transcribe.Transcriber{}
	var whisper *transcribe.WhisperClient
	if cfg.whisperServerURL != "" {
		whisper = transcribe.NewWhisperClient(cfg.whisperServerURL, cfg.asrPoolSize)
		engines["whisper-server"] = whisper
	}
	if cfg.openaiAPIKey != "" {
		engines["openai"] = transcribe.NewOpenAIClient(cfg.openaiAPIKey, cfg.openaiModel)
	}
	if len(engines) == 0 {
		slog.Error("no transcription engine configured; set WHISPER_SERVER_URL or OPENAI_API_KEY")
		os.Exit(1)
	}
	engine := cfg.engine
	if engine == "" {
		if whisper != nil {
			engine = "whisper-server"
		} else {
			engine = "openai"
		}
	}
	asr := transcribe.NewService(transcribe.NewRouter(engines, engine))

	if whisper != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := whisper.Warmup(ctx); err != nil {
				slog.Warn("whisper warmup", "error", err)
				return
			}
			slog.Info("whisper server warm")
		}()
	}

	// Backend answer and credit services
	client := backend.NewClient(cfg.backendURL, cfg.backendEmail, cfg.backendToken, cfg.backendPoolSize)
	meter := answer.NewMeter(0)
	answers := answer.NewRouter(client, meter, profile.NetworkTimeout)

	// Question tracing, enabled only with a database
	var store *trace.Store
	var tracer *trace.Tracer
	sessionID := uuid.NewString()
	if cfg.traceDBURL != "" {
		var err error
		store, err = trace.Open(cfg.traceDBURL)
		if err != nil {
			slog.Error("open trace store", "error", err)
			os.Exit(1)
		}
		meta, _ := json.Marshal(map[string]string{
			"goos": runtime.GOOS,
			"tier": string(profile.Tier),
		})
		if err := store.CreateSession(sessionID, string(meta)); err != nil {
			slog.Warn("create trace session", "error", err)
		}
		tracer = trace.NewTracer(store, sessionID)
		slog.Info("tracing enabled", "session_id", sessionID)
	}

	dumper, err := audio.NewDumper(cfg.debugAudioDir)
	if err != nil {
		slog.Error("audio dump dir", "error", err)
		os.Exit(1)
	}

	var ctl *session.Controller
	hub := ui.NewHub(func(cmd hotkey.Command, path string) {
		ctl.Dispatch(cmd, path)
	})

	ctl = session.New(session.Config{
		OpenCapture: func() (audio.Capture, error) {
			return audio.OpenDevice(cfg.deviceRate)
		},
		Transcriber:  asr,
		Engine:       engine,
		Answers:      answers,
		Meter:        meter,
		Credits:      client,
		Surface:      hub,
		Profile:      profile,
		GOOS:         runtime.GOOS,
		Tracer:       tracer,
		Dumper:       dumper,
		HistoryLimit: cfg.historyLimit,
	})

	// Overlay socket, bound to loopback only
	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		wsHandler:  ui.NewHandler(hub),
		hub:        hub,
		asr:        asr,
		engine:     engine,
		traceStore: store,
	})
	addr := net.JoinHostPort("127.0.0.1", cfg.port)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("overlay server failed", "error", err)
			os.Exit(1)
		}
	}()

	keymap := hotkey.Keymap(runtime.GOOS)
	go func() {
		err := hotkey.Listen(keymap, func(cmd hotkey.Command) {
			ctl.Dispatch(cmd, "")
		})
		if errors.Is(err, hotkey.ErrUnsupported) {
			slog.Info("global hotkeys unavailable; overlay controls remain active")
			return
		}
		if err != nil {
			slog.Error("hotkey listener failed", "error", err)
		}
	}()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		ctl.Dispatch(hotkey.CmdQuit, "")
	}()

	slog.Info("companion starting",
		"addr", addr,
		"engine", engine,
		"tier", profile.Tier,
		"threshold_db", profile.EnergyThresholdDB)

	if err := ctl.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("session loop failed", "error", err)
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shCtx)
	tracer.Close()
	if store != nil {
		if err := store.EndSession(sessionID); err != nil {
			slog.Warn("end trace session", "error", err)
		}
		store.Close()
	}
	slog.Info("companion stopped")
}
