package wavenc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

const bitDepth = 16

// Encoder writes accumulated PCM16 chunks into standard WAV containers on
// temporary storage.
type Encoder struct {
	tempDir string
}

// New creates an encoder writing into tempDir, or the system temp directory
// when empty.
func New(tempDir string) *Encoder {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Encoder{tempDir: tempDir}
}

// TempPath derives a collision-free WAV path for one cycle.
func (e *Encoder) TempPath() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	return filepath.Join(e.tempDir, fmt.Sprintf("voice2clip_%s.wav", id))
}

// Encode serializes chunks to path as uncompressed PCM WAV. The file is
// fully written and closed before Encode returns; on failure the partial
// file is removed.
func (e *Encoder) Encode(path string, chunks [][]int16, sampleRate, channels int) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(path)
		}
	}()

	enc := wav.NewEncoder(file, sampleRate, bitDepth, channels, 1)
	format := &audio.Format{NumChannels: channels, SampleRate: sampleRate}

	for _, chunk := range chunks {
		data := make([]int, len(chunk))
		for i, sample := range chunk {
			data[i] = int(sample)
		}
		buf := &audio.IntBuffer{Format: format, Data: data, SourceBitDepth: bitDepth}
		if err = enc.Write(buf); err != nil {
			return fmt.Errorf("write wav samples: %w", err)
		}
	}

	if err = enc.Close(); err != nil {
		return fmt.Errorf("finalize wav file: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("close wav file: %w", err)
	}
	return nil
}
