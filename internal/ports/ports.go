package ports

import (
	"context"
	"errors"
	"time"

	"github.com/alisacorporation/voice2clip/internal/domain"
)

// ErrSessionClosed is returned by ReadChunk once the session is closed;
// the pump treats it as a clean end of input rather than a device error.
var ErrSessionClosed = errors.New("capture session closed")

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	ChunkSize   int
	DeviceIndex int // negative selects the default input device
}

// AudioSession is a live capture session.
type AudioSession interface {
	// ReadChunk blocks until one fixed-size chunk of PCM16 samples is
	// available. The returned slice is owned by the caller.
	ReadChunk() ([]int16, error)
	Close() error
}

// AudioCapture creates microphone capture sessions and enumerates devices.
type AudioCapture interface {
	Open(ctx context.Context, cfg AudioConfig) (AudioSession, error)
	Devices() ([]domain.Device, error)
}

// WavEncoder serializes accumulated PCM chunks to a WAV file.
type WavEncoder interface {
	Encode(path string, chunks [][]int16, sampleRate, channels int) error
	TempPath() string
}

// Engine invokes the external speech-to-text process on a WAV file.
type Engine interface {
	Transcribe(ctx context.Context, wavPath string) (domain.EngineResult, error)
}

// TranscriptFilter cleans raw engine output and decides acceptance.
type TranscriptFilter interface {
	// Clean returns the cleaned transcript and true, or "" and false when
	// the candidate is rejected as noise.
	Clean(raw string) (string, bool)
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(text string) error
}

// Notifier emits best-effort desktop notifications.
type Notifier interface {
	Notify(title, message string, timeout time.Duration) error
	ClearAll() error
}

// RecordStore persists one TranscriptionRecord per file.
type RecordStore interface {
	Save(record domain.TranscriptionRecord) (string, error)
}

// Deliverer fans an accepted transcript out to its destinations.
type Deliverer interface {
	Deliver(record domain.TranscriptionRecord)
}
