package model

import "time"

type DispatchStatus string

const (
	DispatchSkipped   DispatchStatus = "skipped"
	DispatchSent      DispatchStatus = "sent"
	DispatchDelivered DispatchStatus = "delivered"
	DispatchFailed    DispatchStatus = "failed"
)

func (s DispatchStatus) String() string { return string(s) }

func (s DispatchStatus) Valid() bool {
	switch s {
	case DispatchSkipped, DispatchSent, DispatchDelivered, DispatchFailed:
		return true
	}
	return false
}

// Dispatch is the audit row persisted per accepted send request.
// The recipient is stored redacted.
type Dispatch struct {
	ID          string         `db:"id"`
	Channel     string         `db:"channel"`
	To          string         `db:"recipient"` // redacted
	Outcome     string         `db:"outcome"`   // sendability decision
	ProviderSID string         `db:"provider_sid"`
	Status      DispatchStatus `db:"status"`
	ErrorCode   string         `db:"error_code"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// DeliveryEvent is one provider status-callback observation, appended to
// the reporting store.
type DeliveryEvent struct {
	ProviderSID string    `db:"provider_sid" json:"provider_sid"`
	Channel     string    `db:"channel" json:"channel"`
	Status      string    `db:"status" json:"status"`
	ErrorCode   string    `db:"error_code" json:"error_code,omitempty"`
	OccurredAt  time.Time `db:"occurred_at" json:"occurred_at"`
}
