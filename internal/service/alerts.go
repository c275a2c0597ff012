package service

import (
	"context"
	"log/slog"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/sse"
	"github.com/localcircle/localcircle-server/internal/store"
)

// AlertService serves a user's alert inbox. Alerts themselves are created by
// the ledger in the same batch as the action that triggers them.
type AlertService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAlertService creates a new alert service.
func NewAlertService(store *store.Store, logger *slog.Logger) *AlertService {
	return &AlertService{
		store:  store,
		logger: logger,
	}
}

// Inbox returns userID's alerts, newest first, with the unread count.
func (s *AlertService) Inbox(ctx context.Context, userID string) (domain.AlertInbox, error) {
	inbox, err := s.store.AlertInbox(ctx, userID)
	if err != nil {
		return domain.AlertInbox{}, readError(err, "alerts")
	}
	return inbox, nil
}

// MarkAllRead flags every unread alert as read and returns how many changed.
func (s *AlertService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	marked := 0
	err := s.store.Batch(ctx, func(b *store.Batch) error {
		var err error
		if marked, err = b.MarkAlertsRead(userID); err != nil {
			return err
		}
		if marked > 0 {
			b.Emit(sse.NewAlertsReadEvent(userID, marked))
		}
		return nil
	})
	if err != nil {
		return 0, writeError(err, "mark alerts read")
	}

	if marked > 0 {
		s.logger.Debug("alerts marked read", "user_id", userID, "count", marked)
	}
	return marked, nil
}
