package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/smorady/msg-orchestrator/internal/model"
)

// DeliveriesRepository is the append-only delivery-event log backing the
// reports endpoint.
type DeliveriesRepository interface {
	Insert(ctx context.Context, ev model.DeliveryEvent) error
	List(ctx context.Context, ch string, status string, limit, offset int) ([]model.DeliveryEvent, error)
}

type deliveriesRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewDeliveriesRepository(ch *sqlx.DB) DeliveriesRepository {
	return &deliveriesRepository{ch: ch}
}

func (r *deliveriesRepository) Insert(ctx context.Context, ev model.DeliveryEvent) error {
	const q = `
		INSERT INTO msgorch.delivery_events
		    (provider_sid, channel, status, error_code, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.ch.ExecContext(ctx, q, ev.ProviderSID, ev.Channel, ev.Status, ev.ErrorCode, ev.OccurredAt)
	return err
}

func (r *deliveriesRepository) List(ctx context.Context, ch string, status string, limit, offset int) ([]model.DeliveryEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT provider_sid, channel, status, error_code, occurred_at
		FROM msgorch.delivery_events
		WHERE 1 = 1
	`
	args := []any{}

	if ch != "" {
		q += " AND channel = ?"
		args = append(args, ch)
	}
	if status != "" {
		q += " AND status = ?"
		args = append(args, status)
	}

	q += " ORDER BY occurred_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.DeliveryEvent
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
