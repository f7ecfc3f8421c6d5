package orchestrator

import (
	"sync"

	"github.com/speedx-dev/speedx/internal/model"
	"github.com/speedx-dev/speedx/internal/platform/errs"
)

// Notifier receives one user-facing notification per error.
type Notifier interface {
	Notify(n model.Notification)
}

// NotificationFor returns the notification copy for an error kind.
func NotificationFor(kind errs.Kind) model.Notification {
	return model.Notification{Title: kind.Title(), Description: kind.Description()}
}

const defaultInboxSize = 20

// Inbox buffers notifications until a reader drains them. When full, the
// oldest notification is dropped.
type Inbox struct {
	mu    sync.Mutex
	items []model.Notification
	size  int
}

// NewInbox returns an Inbox holding at most size notifications.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Inbox{size: size}
}

// Notify implements Notifier.
func (in *Inbox) Notify(n model.Notification) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(in.items) == in.size {
		in.items = in.items[1:]
	}
	in.items = append(in.items, n)
}

// Drain returns the buffered notifications oldest first and empties the inbox.
func (in *Inbox) Drain() []model.Notification {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := in.items
	in.items = nil
	if out == nil {
		return []model.Notification{}
	}
	return out
}
