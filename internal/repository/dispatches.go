package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/smorady/msg-orchestrator/internal/model"
)

// DispatchesRepository persists the per-send audit rows.
type DispatchesRepository interface {
	Insert(ctx context.Context, d model.Dispatch) error
	UpdateStatusBySID(ctx context.Context, providerSID string, status model.DispatchStatus, errorCode string) error
	Get(ctx context.Context, id string) (*model.Dispatch, error)
	GetByProviderSID(ctx context.Context, providerSID string) (*model.Dispatch, error)
}

type DispatchesRepositoryImpl struct {
	db *sqlx.DB
}

func NewDispatchesRepository(db *sqlx.DB) *DispatchesRepositoryImpl {
	return &DispatchesRepositoryImpl{db: db}
}

func (r *DispatchesRepositoryImpl) Insert(ctx context.Context, d model.Dispatch) error {
	const q = `
		INSERT INTO dispatches
		    (id, channel, recipient, outcome, provider_sid, status, error_code, created_at, updated_at)
		VALUES
		    (?,  ?,       ?,         ?,       ?,            ?,      ?,          NOW(),     NOW())
	`
	_, err := r.db.ExecContext(ctx, q,
		d.ID, d.Channel, d.To, d.Outcome, d.ProviderSID, d.Status.String(), d.ErrorCode,
	)
	return err
}

// UpdateStatusBySID applies a provider status callback to the matching row.
func (r *DispatchesRepositoryImpl) UpdateStatusBySID(ctx context.Context, providerSID string, status model.DispatchStatus, errorCode string) error {
	const q = `
		UPDATE dispatches
		SET status = ?, error_code = ?, updated_at = NOW()
		WHERE provider_sid = ?
	`
	_, err := r.db.ExecContext(ctx, q, status.String(), errorCode, providerSID)
	return err
}

func (r *DispatchesRepositoryImpl) Get(ctx context.Context, id string) (*model.Dispatch, error) {
	const q = `
		SELECT id, channel, recipient, outcome, provider_sid, status, error_code, created_at, updated_at
		FROM dispatches
		WHERE id = ?
	`
	var d model.Dispatch
	if err := r.db.GetContext(ctx, &d, q, id); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DispatchesRepositoryImpl) GetByProviderSID(ctx context.Context, providerSID string) (*model.Dispatch, error) {
	const q = `
		SELECT id, channel, recipient, outcome, provider_sid, status, error_code, created_at, updated_at
		FROM dispatches
		WHERE provider_sid = ?
		LIMIT 1
	`
	var d model.Dispatch
	if err := r.db.GetContext(ctx, &d, q, providerSID); err != nil {
		return nil, err
	}
	return &d, nil
}
