package hotkey

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/alisacorporation/voice2clip/internal/domain"
	"github.com/alisacorporation/voice2clip/internal/usecase"
)

// KeyEvent is one press or release edge reported by the global hook.
type KeyEvent struct {
	Key     string
	Pressed bool
}

// Source delivers global keyboard events until closed.
type Source interface {
	Events() <-chan KeyEvent
	Close()
}

// Session is the recording lifecycle the controller drives.
type Session interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (domain.CycleResult, error)
}

// Controller maps press/release edges of the push-to-talk key onto session
// start/stop. Each edge spawns its own goroutine so the event loop never
// blocks on recording or transcription and keeps observing further keys.
type Controller struct {
	key     string
	session Session
	log     *zap.Logger

	held bool // loop-local, only touched from Run
}

func NewController(key string, session Session, log *zap.Logger) *Controller {
	return &Controller{key: NormalizeKey(key), session: session, log: log}
}

// Run consumes events until the source closes or ctx is canceled.
func (c *Controller) Run(ctx context.Context, events <-chan KeyEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			c.handle(ctx, event)
		}
	}
}

func (c *Controller) handle(ctx context.Context, event KeyEvent) {
	if event.Key != c.key {
		return
	}

	if event.Pressed {
		// Key auto-repeat delivers extra press edges while held.
		if c.held {
			return
		}
		c.held = true
		go func() {
			if err := c.session.Start(ctx); err != nil {
				if errors.Is(err, usecase.ErrSessionActive) {
					return
				}
				c.log.Error("failed to start recording", zap.Error(err))
			}
		}()
		return
	}

	if !c.held {
		return
	}
	c.held = false
	go func() {
		result, err := c.session.Stop(ctx)
		if err != nil {
			if errors.Is(err, usecase.ErrNoActiveSession) {
				return
			}
			c.log.Error("recording cycle failed", zap.Error(err))
			return
		}
		c.log.Info("cycle finished",
			zap.String("reason", string(result.Reason)),
			zap.String("status", result.Reason.Message()),
			zap.Bool("delivered", result.Delivered))
	}()
}
