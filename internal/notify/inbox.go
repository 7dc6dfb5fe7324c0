package notify

import (
	"context"
	"strings"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/storage"
)

// InboxSink stores events in the notifications table.
type InboxSink struct {
	repo *storage.NotificationRepo
}

func NewInboxSink(db storage.DBTX) *InboxSink {
	return &InboxSink{repo: storage.NewNotificationRepo(db)}
}

func (s *InboxSink) Notify(ctx context.Context, ev engine.Event) error {
	n := &storage.Notification{
		UserID:    ev.UserID,
		Kind:      string(ev.Kind),
		Title:     ev.Title,
		Message:   ev.Message,
		CreatedAt: ev.CreatedAt,
	}
	if id := strings.TrimSpace(ev.QuestID); id != "" {
		n.QuestID = &id
	}
	return s.repo.Insert(ctx, n)
}
