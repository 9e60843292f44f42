package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alisacorporation/voice2clip/internal/domain"
)

// Store persists one JSON file per transcription. Files are append-only:
// written once, never mutated or overwritten.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes record as a new timestamp-named file and returns its path.
// Same-second collisions get a numeric suffix so concurrent cycles never
// overwrite each other.
func (s *Store) Save(record domain.TranscriptionRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcription dir: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	base := fmt.Sprintf("transcription_%s", record.Timestamp.Format("20060102_150405"))
	for i := 0; ; i++ {
		name := base + ".json"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.json", base, i)
		}
		path := filepath.Join(s.dir, name)

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create record file: %w", err)
		}

		if _, err := file.Write(data); err != nil {
			_ = file.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("write record file: %w", err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("close record file: %w", err)
		}
		return path, nil
	}
}
