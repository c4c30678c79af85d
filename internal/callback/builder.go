package callback

import (
	"net/url"

	"github.com/smorady/msg-orchestrator/internal/apperr"
)

// DefaultConnectionOverrides is the fragment appended when settings carry
// no override.
const DefaultConnectionOverrides = "rp=all&rc=5"

// Synthetic query parameters appended alongside the caller's custom args so
// the analytics platform can correlate delivery callbacks.
const (
	SpaceIDParam         = "space_id"
	ExternalIDKeyParam   = "__segment_internal_external_id_key__"
	ExternalIDValueParam = "__segment_internal_external_id_value__"
)

// Build constructs the provider status-callback URL. An empty base URL
// returns "" with no error: the callback is optional. A malformed base URL
// is a hard failure; a broken callback must abort the send rather than
// silently drop delivery correlation.
func Build(baseURL, connectionOverrides, spaceID string, customArgs map[string]string, extIDKey, extIDValue string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", apperr.Validation("invalid_webhook_url", "webhook URL is not a valid absolute URL")
	}

	// append, never replace: a custom arg colliding with a synthetic key
	// keeps both values on the wire
	q := u.Query()
	for k, v := range customArgs {
		q.Add(k, v)
	}
	q.Add(SpaceIDParam, spaceID)
	q.Add(ExternalIDKeyParam, extIDKey)
	q.Add(ExternalIDValueParam, extIDValue)
	u.RawQuery = q.Encode()

	if connectionOverrides == "" {
		connectionOverrides = DefaultConnectionOverrides
	}
	u.Fragment = connectionOverrides

	return u.String(), nil
}
