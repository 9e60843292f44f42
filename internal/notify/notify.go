package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"
	appName           = "voice2clip"
)

// Notifier emits best-effort desktop notifications. The native notification
// bus is preferred, a cross-platform fallback second, console print last.
type Notifier interface {
	Notify(title, message string, timeout time.Duration) error
	ClearAll() error
}

// New picks the best available transport. Construction never fails; when no
// session bus is reachable the beeep fallback is used.
func New() Notifier {
	conn, err := dbus.SessionBus()
	if err != nil {
		return &beeepNotifier{}
	}
	return &dbusNotifier{conn: conn}
}

type dbusNotifier struct {
	conn *dbus.Conn

	mu      sync.Mutex
	pending []uint32
}

func (n *dbusNotifier) Notify(title, message string, timeout time.Duration) error {
	if skip(title, message) {
		return nil
	}

	obj := n.conn.Object(notificationsDest, dbus.ObjectPath(notificationsPath))
	call := obj.Call(notificationsDest+".Notify", 0,
		appName,
		uint32(0),
		"",
		title,
		message,
		[]string{},
		map[string]dbus.Variant{},
		int32(timeout/time.Millisecond),
	)
	if call.Err != nil {
		return fmt.Errorf("dbus notify failed: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err == nil {
		n.mu.Lock()
		n.pending = append(n.pending, id)
		if len(n.pending) > 16 {
			n.pending = n.pending[len(n.pending)-16:]
		}
		n.mu.Unlock()
	}
	return nil
}

// ClearAll closes every notification this process has outstanding.
func (n *dbusNotifier) ClearAll() error {
	n.mu.Lock()
	pending := n.pending
	n.pending = nil
	n.mu.Unlock()

	obj := n.conn.Object(notificationsDest, dbus.ObjectPath(notificationsPath))
	var firstErr error
	for _, id := range pending {
		if call := obj.Call(notificationsDest+".CloseNotification", 0, id); call.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("dbus close notification failed: %w", call.Err)
		}
	}
	return firstErr
}

type beeepNotifier struct{}

func (n *beeepNotifier) Notify(title, message string, _ time.Duration) error {
	if skip(title, message) {
		return nil
	}
	if err := beeep.Notify(title, message, ""); err != nil {
		// Last resort so the user still sees something.
		fmt.Printf("%s: %s\n", title, message)
		return fmt.Errorf("fallback notification failed: %w", err)
	}
	return nil
}

func (n *beeepNotifier) ClearAll() error {
	return nil
}

func skip(title, message string) bool {
	return strings.TrimSpace(title) == "" || strings.TrimSpace(message) == ""
}
