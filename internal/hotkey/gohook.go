package hotkey

import (
	"strings"

	hook "github.com/robotn/gohook"
)

// DefaultKey is the push-to-talk key when none is configured.
const DefaultKey = "alt"

// NormalizeKey canonicalizes a configured key name.
func NormalizeKey(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return DefaultKey
	}
	return trimmed
}

// HookSource adapts the global gohook keyboard hook to the Source interface.
type HookSource struct {
	out chan KeyEvent
}

func NewHookSource() *HookSource {
	return &HookSource{out: make(chan KeyEvent, 64)}
}

// Events starts the hook and translates raw events into press/release
// edges. Non-key events are dropped.
func (s *HookSource) Events() <-chan KeyEvent {
	raw := hook.Start()
	go func() {
		defer close(s.out)
		for event := range raw {
			switch event.Kind {
			case hook.KeyDown, hook.KeyHold:
				s.out <- KeyEvent{Key: keyName(event.Rawcode), Pressed: true}
			case hook.KeyUp:
				s.out <- KeyEvent{Key: keyName(event.Rawcode), Pressed: false}
			}
		}
	}()
	return s.out
}

func (s *HookSource) Close() {
	hook.End()
}

func keyName(rawcode uint16) string {
	return strings.ToLower(hook.RawcodetoKeychar(rawcode))
}
