package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/localcircle/localcircle-server/internal/domain"
)

// AlertsForRecipient returns up to limit of userID's alerts, newest first.
// A limit <= 0 returns all of them.
func (s *Store) AlertsForRecipient(ctx context.Context, userID string, limit int) ([]*domain.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alerts := make([]*domain.Alert, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range scanKeys(txn, alertRecipientPrefix(userID)) {
			if limit > 0 && len(alerts) >= limit {
				break
			}
			var a domain.Alert
			err := getJSON(txn, alertKey(lastSegment(k)), &a)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			alerts = append(alerts, &a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// AlertInbox returns userID's alerts with the unread count.
func (s *Store) AlertInbox(ctx context.Context, userID string) (domain.AlertInbox, error) {
	alerts, err := s.AlertsForRecipient(ctx, userID, 0)
	if err != nil {
		return domain.AlertInbox{}, err
	}
	return domain.NewAlertInbox(alerts), nil
}
