package contacts

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/apperr"
	"github.com/smorady/msg-orchestrator/internal/transport"
)

// duplicateCode is the peer CRM's error code for "resource already exists".
const duplicateCode = 50901

// Contact is the upserted CRM record.
type Contact struct {
	ExternalID string            `json:"external_id"`
	Phone      string            `json:"phone,omitempty"`
	Email      string            `json:"email,omitempty"`
	Traits     map[string]string `json:"traits,omitempty"`
}

// Client upserts contacts into the peer CRM. Pass-through request
// construction; the only decision logic is duplicate-race detection.
type Client struct {
	Transport transport.Doer
	BaseURL   string
	APIKey    string
	Log       *zap.Logger
}

func NewClient(doer transport.Doer, baseURL, apiKey string, log *zap.Logger) *Client {
	return &Client{Transport: doer, BaseURL: baseURL, APIKey: apiKey, Log: log}
}

// Upsert creates or updates the contact. When two concurrent creates race,
// the loser gets a duplicate-resource rejection; that is surfaced as a
// retryable error so the host re-runs the call as an update.
func (c *Client) Upsert(ctx context.Context, contact Contact) error {
	if contact.ExternalID == "" {
		return apperr.Validation("missing_external_id", "contact external id is required")
	}

	header := http.Header{}
	if c.APIKey != "" {
		header.Set("Authorization", "Bearer "+c.APIKey)
	}

	_, err := c.Transport.Do(ctx, transport.Request{
		Method: http.MethodPut,
		URL:    c.BaseURL + "/v1/contacts/" + contact.ExternalID,
		Header: header,
		JSON:   contact,
	})
	if err == nil {
		return nil
	}

	var reqErr *transport.RequestError
	if errors.As(err, &reqErr) && (reqErr.Body.Code == duplicateCode || reqErr.Status == http.StatusConflict) {
		c.Log.Info("contact create raced with concurrent create",
			zap.String("external_id", contact.ExternalID),
		)
		return apperr.Retryable("contact_already_exists", "contact was created concurrently, retry", err)
	}

	return err
}
