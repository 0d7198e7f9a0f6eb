package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/feed"
	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

// notifier publishes change events after writes. A publish failure is logged
// and never fails the write that caused it.
type notifier struct {
	publisher feed.Publisher
	logger    zerolog.Logger
}

func (n notifier) upsert(ctx context.Context, userID string, c models.Collection, id string, doc interface{}) {
	n.emit(ctx, userID, c, models.OpUpsert, id, doc)
}

func (n notifier) remove(ctx context.Context, userID string, c models.Collection, id string) {
	n.emit(ctx, userID, c, models.OpDelete, id, nil)
}

func (n notifier) emit(ctx context.Context, userID string, c models.Collection, op models.ChangeOp, id string, doc interface{}) {
	if n.publisher == nil {
		return
	}

	event, err := feed.NewEvent(userID, c, op, id, doc)
	if err == nil {
		err = n.publisher.Publish(context.WithoutCancel(ctx), event)
	}
	if err != nil {
		n.logger.Warn().Err(err).
			Str("user_id", userID).
			Str("collection", string(c)).
			Str("doc_id", id).
			Msg("Failed to publish change event")
	}
}
