package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/alisacorporation/voice2clip/internal/domain"
)

// ErrTimeout reports that the engine exceeded its wall-clock budget.
var ErrTimeout = errors.New("transcription timed out")

// Config selects the engine binary, model, and decoding parameters.
type Config struct {
	BinaryPath         string
	ModelPath          string
	Threads            int
	BeamSize           int
	BestOf             int
	NoSpeechThreshold  float64
	WordTimestampThold float64
	Timeout            time.Duration
}

func (c Config) withDefaults() Config {
	if c.BinaryPath == "" {
		c.BinaryPath = "whisper-cli"
	}
	if c.Threads <= 0 {
		c.Threads = 6
	}
	if c.BeamSize <= 0 {
		c.BeamSize = 3
	}
	if c.BestOf <= 0 {
		c.BestOf = 3
	}
	if c.NoSpeechThreshold <= 0 {
		c.NoSpeechThreshold = 0.60
	}
	if c.WordTimestampThold <= 0 {
		c.WordTimestampThold = 0.01
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Engine shells out to a whisper.cpp CLI binary with a file-in/text-out
// contract: exit 0 and transcript on stdout, or a non-zero exit with
// diagnostics on stderr.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Args builds the fixed argument set for one invocation. Timestamps and
// extraneous prints are disabled so stdout carries transcript text only.
func (e *Engine) Args(wavPath string) []string {
	return []string{
		"-m", e.cfg.ModelPath,
		"-f", wavPath,
		"-t", strconv.Itoa(e.cfg.Threads),
		"--split-on-word",
		"-np",
		"-nt",
		"-wt", strconv.FormatFloat(e.cfg.WordTimestampThold, 'f', -1, 64),
		"-nth", strconv.FormatFloat(e.cfg.NoSpeechThreshold, 'f', -1, 64),
		"-bo", strconv.Itoa(e.cfg.BestOf),
		"-bs", strconv.Itoa(e.cfg.BeamSize),
	}
}

// Transcribe runs the engine on wavPath and returns its raw stdout text.
// Timeouts surface as ErrTimeout and are never retried.
func (e *Engine) Transcribe(ctx context.Context, wavPath string) (domain.EngineResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.cfg.BinaryPath, e.Args(wavPath)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	if runCtx.Err() == context.DeadlineExceeded {
		return domain.EngineResult{Elapsed: elapsed}, fmt.Errorf("%w after %s", ErrTimeout, e.cfg.Timeout)
	}
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return domain.EngineResult{Elapsed: elapsed}, fmt.Errorf("engine failed: %w: %s", err, detail)
	}

	return domain.EngineResult{
		Text:    strings.TrimSpace(stdout.String()),
		Elapsed: elapsed,
	}, nil
}

// Check probes the engine binary so a missing install is reported at
// startup instead of on the first recording.
func (e *Engine) Check(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, e.cfg.BinaryPath, "--help")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("engine binary %q not usable: %w", e.cfg.BinaryPath, err)
	}
	return nil
}
