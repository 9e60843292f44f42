package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard writes transcripts into the system clipboard, last write wins.
type Clipboard struct{}

func New() *Clipboard {
	return &Clipboard{}
}

func (c *Clipboard) SetText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	return nil
}
