package bootstrap

import (
	"go.uber.org/zap"

	"github.com/alisacorporation/voice2clip/internal/audio"
	"github.com/alisacorporation/voice2clip/internal/clipboard"
	"github.com/alisacorporation/voice2clip/internal/config"
	"github.com/alisacorporation/voice2clip/internal/delivery"
	"github.com/alisacorporation/voice2clip/internal/filter"
	"github.com/alisacorporation/voice2clip/internal/notify"
	"github.com/alisacorporation/voice2clip/internal/ports"
	"github.com/alisacorporation/voice2clip/internal/store"
	"github.com/alisacorporation/voice2clip/internal/usecase"
	"github.com/alisacorporation/voice2clip/internal/wavenc"
	"github.com/alisacorporation/voice2clip/internal/whisper"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Engine     *whisper.Engine
	Capture    *audio.Capture
	Notifier   notify.Notifier
	Config     config.Config
}

// Build wires all runtime dependencies.
func Build(cfg config.Config, log *zap.Logger) Services {
	capture := audio.NewCapture()
	encoder := wavenc.New(cfg.Output.TempDir)
	engine := whisper.NewEngine(whisper.Config{
		BinaryPath:         cfg.Whisper.BinaryPath,
		ModelPath:          cfg.Whisper.ModelPath,
		Threads:            cfg.Whisper.Threads,
		BeamSize:           cfg.Whisper.BeamSize,
		BestOf:             cfg.Whisper.BestOf,
		NoSpeechThreshold:  cfg.Whisper.NoSpeechThreshold,
		WordTimestampThold: cfg.Whisper.WordTimestampThold,
		Timeout:            cfg.Whisper.Timeout,
	})
	notifier := notify.New()
	hub := delivery.NewHub(
		clipboard.New(),
		store.New(cfg.Output.TranscriptionDir),
		notifier,
		log.Named("delivery"),
	)

	controller := usecase.NewSessionController(
		capture,
		encoder,
		engine,
		filter.New(cfg.Filter.NoiseWords, cfg.Filter.MeaningfulWords),
		hub,
		notifier,
		log.Named("session"),
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				ChunkSize:   cfg.Audio.ChunkSize,
				DeviceIndex: cfg.Audio.DeviceIndex,
			},
			MinDuration: cfg.Session.MinDuration,
			ModelPath:   cfg.Whisper.ModelPath,
		},
	)

	return Services{
		Controller: controller,
		Engine:     engine,
		Capture:    capture,
		Notifier:   notifier,
		Config:     cfg,
	}
}
