package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alisacorporation/voice2clip/internal/bootstrap"
	"github.com/alisacorporation/voice2clip/internal/config"
	"github.com/alisacorporation/voice2clip/internal/hotkey"
	"github.com/alisacorporation/voice2clip/internal/logging"
)

// NewRootCmd builds the voice2clip command surface. The root command runs
// the push-to-talk listener; `devices` lists capture devices.
func NewRootCmd() *cobra.Command {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "voice2clip",
		Short: "Push-to-talk dictation into the clipboard",
		Long: "Hold a key to record from the microphone; on release the clip is " +
			"transcribed with whisper.cpp, cleaned up, copied to the clipboard, " +
			"and saved as a JSON record.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfg.Whisper.BinaryPath, "whisper-path", cfg.Whisper.BinaryPath, "path to the whisper.cpp CLI executable")
	flags.StringVar(&cfg.Whisper.ModelPath, "model", cfg.Whisper.ModelPath, "path to the whisper model file")
	flags.DurationVar(&cfg.Whisper.Timeout, "timeout", cfg.Whisper.Timeout, "transcription subprocess timeout")
	flags.IntVar(&cfg.Audio.DeviceIndex, "audio-device", cfg.Audio.DeviceIndex, "audio device index (-1 for default)")
	flags.StringVar(&cfg.Output.TranscriptionDir, "transcription-dir", cfg.Output.TranscriptionDir, "directory for transcription records")
	flags.StringVar(&cfg.Session.Key, "key", cfg.Session.Key, "push-to-talk key")
	flags.DurationVar(&cfg.Session.MinDuration, "min-duration", cfg.Session.MinDuration, "minimum clip duration worth transcribing")
	rootCmd.PersistentFlags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newDevicesCmd())

	return rootCmd
}

func run(ctx context.Context, cfg config.Config) error {
	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	services := bootstrap.Build(cfg, log)

	if err := services.Engine.Check(ctx); err != nil {
		return fmt.Errorf("whisper.cpp not usable, install it and check --whisper-path: %w", err)
	}
	if cfg.ModelMissing() {
		return fmt.Errorf("model not found at %q; download one or pass --model", cfg.Whisper.ModelPath)
	}

	log.Info("voice2clip ready",
		zap.String("model", cfg.Whisper.ModelPath),
		zap.String("transcription_dir", cfg.Output.TranscriptionDir),
		zap.String("key", hotkey.NormalizeKey(cfg.Session.Key)))
	fmt.Printf("Hold %s to record, release to transcribe. Ctrl+C to quit.\n",
		hotkey.NormalizeKey(cfg.Session.Key))

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := hotkey.NewHookSource()
	defer source.Close()

	controller := hotkey.NewController(cfg.Session.Key, services.Controller, log.Named("hotkey"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- controller.Run(runCtx, source.Events())
	}()

	select {
	case <-runCtx.Done():
	case err := <-errCh:
		if err != nil && runCtx.Err() == nil {
			return fmt.Errorf("hotkey loop failed: %w", err)
		}
	}

	// Release the device and say goodbye before exiting.
	if abortErr := services.Controller.Abort(); abortErr == nil {
		log.Info("active recording discarded on shutdown")
	}
	_ = services.Notifier.ClearAll()
	_ = services.Notifier.Notify("Push-to-Talk Stopped", "Application has been closed", 3*time.Second)
	log.Info("shutting down")
	return nil
}
