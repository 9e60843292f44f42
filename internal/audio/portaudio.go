package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/alisacorporation/voice2clip/internal/domain"
	"github.com/alisacorporation/voice2clip/internal/ports"
)

// Capture opens PortAudio input streams and enumerates devices. One session
// at a time owns the device handle.
type Capture struct{}

func NewCapture() *Capture {
	return &Capture{}
}

// Devices enumerates the host's audio devices.
func (c *Capture) Devices() ([]domain.Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("device enumeration failed: %w", err)
	}

	devices := make([]domain.Device, 0, len(infos))
	for i, info := range infos {
		devices = append(devices, domain.Device{
			Index:             i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		})
	}
	return devices, nil
}

// Open starts an input stream at the configured rate and chunk size.
func (c *Capture) Open(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1024
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}

	in := make([]int16, cfg.ChunkSize*cfg.Channels)

	var stream *portaudio.Stream
	var err error
	if cfg.DeviceIndex >= 0 {
		stream, err = openDeviceStream(cfg, in)
	} else {
		stream, err = portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), cfg.ChunkSize, in)
	}
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open stream failed: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start stream failed: %w", err)
	}

	return &captureSession{stream: stream, in: in}, nil
}

func openDeviceStream(cfg ports.AudioConfig, in []int16) (*portaudio.Stream, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("device enumeration failed: %w", err)
	}
	if cfg.DeviceIndex >= len(infos) {
		return nil, fmt.Errorf("audio device index %d out of range (%d devices)", cfg.DeviceIndex, len(infos))
	}

	params := portaudio.LowLatencyParameters(infos[cfg.DeviceIndex], nil)
	params.Input.Channels = cfg.Channels
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = cfg.ChunkSize
	return portaudio.OpenStream(params, in)
}

type captureSession struct {
	stream *portaudio.Stream
	in     []int16

	mu     sync.Mutex
	closed bool

	stopOnce sync.Once
	stopErr  error
}

// ReadChunk blocks until the stream fills one chunk. The returned slice is
// a private copy; the stream buffer is reused across reads.
func (s *captureSession) ReadChunk() ([]int16, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ports.ErrSessionClosed
	}
	s.mu.Unlock()

	if err := s.stream.Read(); err != nil {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil, ports.ErrSessionClosed
		}
		return nil, fmt.Errorf("chunk read failed: %w", err)
	}

	chunk := make([]int16, len(s.in))
	copy(chunk, s.in)
	return chunk, nil
}

func (s *captureSession) Close() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if err := s.stream.Stop(); err != nil {
			s.stopErr = err
		}
		if err := s.stream.Close(); err != nil && s.stopErr == nil {
			s.stopErr = err
		}
		portaudio.Terminate()
	})
	return s.stopErr
}
