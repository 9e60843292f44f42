package delivery

import (
	"time"

	"go.uber.org/zap"

	"github.com/alisacorporation/voice2clip/internal/domain"
	"github.com/alisacorporation/voice2clip/internal/ports"
)

const notifyTimeout = 1 * time.Second

// Hub fans an accepted transcript out to the clipboard, the record store,
// and the notifier. Each destination is independent and best-effort: a
// failure is logged and never blocks or rolls back the others.
type Hub struct {
	clipboard ports.Clipboard
	store     ports.RecordStore
	notifier  ports.Notifier
	log       *zap.Logger
}

func NewHub(clipboard ports.Clipboard, store ports.RecordStore, notifier ports.Notifier, log *zap.Logger) *Hub {
	return &Hub{clipboard: clipboard, store: store, notifier: notifier, log: log}
}

func (h *Hub) Deliver(record domain.TranscriptionRecord) {
	if err := h.clipboard.SetText(record.Transcription); err != nil {
		h.log.Warn("clipboard delivery failed", zap.Error(err))
	} else {
		h.log.Info("copied to clipboard", zap.String("text", record.Transcription))
	}

	if path, err := h.store.Save(record); err != nil {
		h.log.Warn("record persistence failed", zap.Error(err))
	} else {
		h.log.Info("saved transcription", zap.String("path", path))
	}

	if err := h.notifier.Notify("Completed", "Transcribed", notifyTimeout); err != nil {
		h.log.Warn("completion notification failed", zap.Error(err))
	}
}
