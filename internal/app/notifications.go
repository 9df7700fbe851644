package app

import (
	"context"
	"sync"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// Notifications caches the viewer's inbox and its unread count
type Notifications struct {
	api     outbound.NotificationAPI
	session *Session
	logger  zerolog.Logger

	mu     sync.RWMutex
	items  []shared.Notification
	unread int

	viewState
}

type NotificationsParams struct {
	API     outbound.NotificationAPI
	Session *Session
	Logger  zerolog.Logger
}

// NewNotifications creates a new notifications view-model
func NewNotifications(params NotificationsParams) *Notifications {
	return &Notifications{
		api:     params.API,
		session: params.Session,
		logger:  params.Logger.With().Str("component", "notifications").Logger(),
	}
}

// Fetch replaces the inbox and recounts unread items
func (n *Notifications) Fetch(ctx context.Context) ([]shared.Notification, error) {
	if _, err := n.session.RequireUser(); err != nil {
		return nil, n.fail(err)
	}

	n.begin()
	items, err := n.api.Notifications(ctx)
	if err != nil {
		n.logger.Warn().Err(err).Msg("Failed to fetch notifications")
		return nil, n.finish(err)
	}

	unread := 0
	for _, item := range items {
		if !item.IsRead {
			unread++
		}
	}

	n.mu.Lock()
	n.items = items
	n.unread = unread
	n.mu.Unlock()
	return n.Items(), n.finish(nil)
}

// MarkAsRead flags one item. The count drops only if it was unread.
func (n *Notifications) MarkAsRead(ctx context.Context, id string) error {
	if _, err := n.session.RequireUser(); err != nil {
		return n.fail(err)
	}

	n.begin()
	if err := n.api.MarkNotificationRead(ctx, id); err != nil {
		return n.finish(err)
	}

	n.mu.Lock()
	for i := range n.items {
		if n.items[i].ID == id && !n.items[i].IsRead {
			n.items[i].IsRead = true
			n.unread--
		}
	}
	n.mu.Unlock()
	return n.finish(nil)
}

func (n *Notifications) MarkAllAsRead(ctx context.Context) error {
	if _, err := n.session.RequireUser(); err != nil {
		return n.fail(err)
	}

	n.begin()
	if err := n.api.MarkAllNotificationsRead(ctx); err != nil {
		return n.finish(err)
	}

	n.mu.Lock()
	for i := range n.items {
		n.items[i].IsRead = true
	}
	n.unread = 0
	n.mu.Unlock()
	return n.finish(nil)
}

func (n *Notifications) UnreadCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.unread
}

func (n *Notifications) Items() []shared.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]shared.Notification, len(n.items))
	copy(out, n.items)
	return out
}
