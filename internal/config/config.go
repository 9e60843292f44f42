package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration resolved from environment variables
// and defaults. CLI flags override individual fields after Load.
type Config struct {
	Whisper WhisperConfig
	Audio   AudioConfig
	Session SessionConfig
	Output  OutputConfig
	Filter  FilterConfig
	Log     LogConfig
}

type WhisperConfig struct {
	BinaryPath         string
	ModelPath          string
	Threads            int
	BeamSize           int
	BestOf             int
	NoSpeechThreshold  float64
	WordTimestampThold float64
	Timeout            time.Duration
}

type AudioConfig struct {
	SampleRate  int
	Channels    int
	ChunkSize   int
	DeviceIndex int // negative means default device
}

type SessionConfig struct {
	Key         string
	MinDuration time.Duration
}

type OutputConfig struct {
	TranscriptionDir string
	TempDir          string
}

type FilterConfig struct {
	NoiseWords      []string
	MeaningfulWords []string
}

type LogConfig struct {
	Level string
}

// Load resolves configuration from environment variables and sensible
// defaults.
func Load() Config {
	cfg := Config{
		Whisper: WhisperConfig{
			BinaryPath:         envOrDefault("VOICE2CLIP_WHISPER_PATH", "whisper-cli"),
			ModelPath:          strings.TrimSpace(os.Getenv("VOICE2CLIP_MODEL")),
			Threads:            envOrDefaultInt("VOICE2CLIP_THREADS", 6),
			BeamSize:           envOrDefaultInt("VOICE2CLIP_BEAM_SIZE", 3),
			BestOf:             envOrDefaultInt("VOICE2CLIP_BEST_OF", 3),
			NoSpeechThreshold:  envOrDefaultFloat("VOICE2CLIP_NO_SPEECH_THRESHOLD", 0.60),
			WordTimestampThold: envOrDefaultFloat("VOICE2CLIP_WORD_THRESHOLD", 0.01),
			Timeout:            envOrDefaultDuration("VOICE2CLIP_ENGINE_TIMEOUT", 30*time.Second),
		},
		Audio: AudioConfig{
			SampleRate:  envOrDefaultInt("VOICE2CLIP_SAMPLE_RATE", 16000),
			Channels:    envOrDefaultInt("VOICE2CLIP_CHANNELS", 1),
			ChunkSize:   envOrDefaultInt("VOICE2CLIP_CHUNK_SIZE", 1024),
			DeviceIndex: envOrDefaultInt("VOICE2CLIP_AUDIO_DEVICE", -1),
		},
		Session: SessionConfig{
			Key:         envOrDefault("VOICE2CLIP_KEY", "alt"),
			MinDuration: envOrDefaultDuration("VOICE2CLIP_MIN_DURATION", 300*time.Millisecond),
		},
		Output: OutputConfig{
			TranscriptionDir: envOrDefault("VOICE2CLIP_TRANSCRIPTION_DIR", defaultTranscriptionDir()),
			TempDir:          envOrDefault("VOICE2CLIP_TEMP_DIR", os.TempDir()),
		},
		Filter: FilterConfig{
			NoiseWords:      splitWords(os.Getenv("VOICE2CLIP_NOISE_WORDS")),
			MeaningfulWords: splitWords(os.Getenv("VOICE2CLIP_SINGLE_WORDS")),
		},
		Log: LogConfig{
			Level: envOrDefault("VOICE2CLIP_LOG_LEVEL", "info"),
		},
	}

	if cfg.ModelMissing() {
		cfg.Whisper.ModelPath = FindModelPath()
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.ChunkSize <= 0 {
		cfg.Audio.ChunkSize = 1024
	}
	if cfg.Session.MinDuration < 0 {
		cfg.Session.MinDuration = 300 * time.Millisecond
	}

	return cfg
}

// ModelMissing reports whether no usable model path is configured.
func (c Config) ModelMissing() bool {
	if strings.TrimSpace(c.Whisper.ModelPath) == "" {
		return true
	}
	_, err := os.Stat(c.Whisper.ModelPath)
	return err != nil
}

// FindModelPath searches common locations for a ggml model file.
func FindModelPath() string {
	var roots []string
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".cache", "whisper"))
	}
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, filepath.Join(cwd, "models"))
	}
	roots = append(roots, "/usr/local/share/whisper", "/usr/share/whisper")

	for _, root := range roots {
		for _, pattern := range []string{"*.ggml*", "ggml*.bin"} {
			matches, err := filepath.Glob(filepath.Join(root, pattern))
			if err != nil {
				continue
			}
			for _, match := range matches {
				if info, err := os.Stat(match); err == nil && !info.IsDir() {
					return match
				}
			}
		}
	}
	return ""
}

func defaultTranscriptionDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "transcriptions"
	}
	return filepath.Join(cwd, "transcriptions")
}

func splitWords(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			words = append(words, trimmed)
		}
	}
	return words
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
