package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alisacorporation/voice2clip/internal/domain"
	"github.com/alisacorporation/voice2clip/internal/ports"
	"github.com/alisacorporation/voice2clip/internal/whisper"
)

var (
	ErrNoActiveSession = errors.New("no active recording session")
	ErrSessionActive   = errors.New("a recording session is already active")
)

// Config controls recording and cycle behavior.
type Config struct {
	Audio       ports.AudioConfig
	MinDuration time.Duration
	ModelPath   string
}

// SessionController drives the push-to-talk lifecycle: Idle → Recording →
// Draining → Idle. Each press/release pair is one independent cycle; a new
// recording may start while a previous cycle is still transcribing.
type SessionController struct {
	audio    ports.AudioCapture
	encoder  ports.WavEncoder
	engine   ports.Engine
	filter   ports.TranscriptFilter
	deliver  ports.Deliverer
	notifier ports.Notifier
	log      *zap.Logger
	cfg      Config

	mu      sync.Mutex
	current *activeSession
}

func NewSessionController(
	audio ports.AudioCapture,
	encoder ports.WavEncoder,
	engine ports.Engine,
	filter ports.TranscriptFilter,
	deliver ports.Deliverer,
	notifier ports.Notifier,
	log *zap.Logger,
	cfg Config,
) *SessionController {
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.ChunkSize <= 0 {
		cfg.Audio.ChunkSize = 1024
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = 300 * time.Millisecond
	}
	return &SessionController{
		audio:    audio,
		encoder:  encoder,
		engine:   engine,
		filter:   filter,
		deliver:  deliver,
		notifier: notifier,
		log:      log,
		cfg:      cfg,
	}
}

// Start opens the capture stream and begins pulling chunks. Valid only
// while idle; a second Start returns ErrSessionActive.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.mu.Unlock()

	session, err := c.audio.Open(ctx, c.cfg.Audio)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}

	active := newActiveSession(session)

	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		_ = session.Close()
		return ErrSessionActive
	}
	c.current = active
	c.mu.Unlock()

	c.notifyBestEffort("Start", "Recording...", time.Second)
	c.log.Info("recording started",
		zap.Int("sample_rate", c.cfg.Audio.SampleRate),
		zap.Int("chunk_size", c.cfg.Audio.ChunkSize))

	go c.pumpChunks(active)
	return nil
}

// pumpChunks blocks on chunk reads and appends them to the session buffer
// until the stream is closed or errors out.
func (c *SessionController) pumpChunks(active *activeSession) {
	defer close(active.pumpDone)

	for {
		chunk, err := active.audio.ReadChunk()
		if err != nil {
			if !errors.Is(err, ports.ErrSessionClosed) {
				active.setReadErr(err)
			}
			return
		}
		if !active.append(chunk) {
			return
		}
	}
}

// Stop ends the active recording and runs the cycle to completion: encode,
// transcribe, filter, deliver. The controller returns to idle regardless of
// the downstream outcome; each cycle is independent.
func (c *SessionController) Stop(ctx context.Context) (domain.CycleResult, error) {
	c.mu.Lock()
	active := c.current
	c.current = nil
	c.mu.Unlock()

	if active == nil {
		return domain.CycleResult{}, ErrNoActiveSession
	}

	active.setState(domain.SessionStateDraining)
	if err := active.audio.Close(); err != nil {
		c.log.Warn("capture stream close reported an error", zap.Error(err))
	}
	<-active.pumpDone

	chunks, readErr := active.snapshot()
	if readErr != nil {
		c.log.Error("capture failed, discarding cycle", zap.Error(readErr))
		return domain.CycleResult{Reason: domain.SessionReasonCaptureFailed},
			fmt.Errorf("capture failed: %w", readErr)
	}

	duration := chunkDuration(len(chunks), c.cfg.Audio.ChunkSize, c.cfg.Audio.SampleRate)
	c.log.Info("recording stopped",
		zap.Int("chunks", len(chunks)),
		zap.Duration("duration", duration))

	if len(chunks) == 0 || duration < c.cfg.MinDuration {
		c.log.Info("recording below minimum duration, discarded",
			zap.Duration("min_duration", c.cfg.MinDuration))
		return domain.CycleResult{Duration: duration, Reason: domain.SessionReasonRecordingDiscarded}, nil
	}

	return c.processCycle(ctx, chunks, duration)
}

func (c *SessionController) processCycle(ctx context.Context, chunks [][]int16, duration time.Duration) (domain.CycleResult, error) {
	c.notifyBestEffort("Processing", "Transcribing...", time.Second)

	wavPath := c.encoder.TempPath()
	if err := c.encoder.Encode(wavPath, chunks, c.cfg.Audio.SampleRate, c.cfg.Audio.Channels); err != nil {
		c.log.Error("wav encoding failed", zap.Error(err))
		return domain.CycleResult{Duration: duration, Reason: domain.SessionReasonEncodeFailed},
			fmt.Errorf("encode wav: %w", err)
	}
	defer func() {
		if err := os.Remove(wavPath); err != nil && !os.IsNotExist(err) {
			c.log.Warn("temp wav cleanup failed", zap.String("path", wavPath), zap.Error(err))
		}
	}()

	result, err := c.engine.Transcribe(ctx, wavPath)
	if err != nil {
		if errors.Is(err, whisper.ErrTimeout) {
			c.notifyBestEffort("Transcription Timeout", "Audio processing took too long", 5*time.Second)
			c.log.Error("engine timed out", zap.Duration("elapsed", result.Elapsed))
			return domain.CycleResult{Duration: duration, Reason: domain.SessionReasonEngineTimeout}, err
		}
		c.log.Error("engine invocation failed", zap.Error(err))
		return domain.CycleResult{Duration: duration, Reason: domain.SessionReasonEngineFailed}, err
	}

	c.log.Debug("raw engine output",
		zap.String("text", result.Text),
		zap.Duration("elapsed", result.Elapsed))

	text, ok := c.filter.Clean(result.Text)
	if !ok {
		// A normal outcome, not an error: silence and noise artifacts end
		// the cycle without any delivery or notification.
		c.log.Info("no actionable transcript")
		return domain.CycleResult{Duration: duration, Reason: domain.SessionReasonNoTranscript}, nil
	}

	record := domain.TranscriptionRecord{
		Timestamp:       time.Now(),
		Transcription:   text,
		DurationSeconds: duration.Seconds(),
	}
	if c.cfg.Audio.DeviceIndex >= 0 {
		device := c.cfg.Audio.DeviceIndex
		record.AudioDevice = &device
	}
	if c.cfg.ModelPath != "" {
		model := c.cfg.ModelPath
		record.ModelPath = &model
	}

	c.deliver.Deliver(record)

	return domain.CycleResult{
		Transcript: text,
		Duration:   duration,
		Delivered:  true,
		Reason:     domain.SessionReasonTranscriptCopied,
	}, nil
}

// Abort discards an in-progress recording without running the pipeline.
// Used on shutdown to release the capture device.
func (c *SessionController) Abort() error {
	c.mu.Lock()
	active := c.current
	c.current = nil
	c.mu.Unlock()

	if active == nil {
		return ErrNoActiveSession
	}

	active.setState(domain.SessionStateDraining)
	if err := active.audio.Close(); err != nil {
		c.log.Warn("capture stream close reported an error", zap.Error(err))
	}
	<-active.pumpDone
	c.log.Info("recording aborted")
	return nil
}

// Recording reports whether a capture session is currently active.
func (c *SessionController) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.getState() == domain.SessionStateRecording
}

func (c *SessionController) notifyBestEffort(title, message string, timeout time.Duration) {
	if err := c.notifier.ClearAll(); err != nil {
		c.log.Debug("notification clear failed", zap.Error(err))
	}
	if err := c.notifier.Notify(title, message, timeout); err != nil {
		c.log.Warn("notification failed", zap.String("title", title), zap.Error(err))
	}
}

func chunkDuration(chunks, chunkSize, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := chunks * chunkSize
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}
