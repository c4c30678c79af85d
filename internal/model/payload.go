package model

import "time"

// ExternalID is a provider-agnostic identifier attached to a profile,
// carrying the channel it belongs to and its consent state.
type ExternalID struct {
	Type               string `json:"type"`                // e.g. "phone"
	ChannelType        string `json:"channel_type"`        // e.g. "sms" | "whatsapp"
	SubscriptionStatus string `json:"subscription_status"` // consent value as stored upstream
	ID                 string `json:"id"`
}

// MessagePayload is one outbound personalized message. Everything here is
// created fresh per send invocation and discarded afterwards.
type MessagePayload struct {
	ExternalIDs []ExternalID      `json:"external_ids"`
	ToNumber    string            `json:"to_number,omitempty"` // direct recipient override
	From        string            `json:"from"`
	Body        string            `json:"body,omitempty"`
	MediaURLs   []string          `json:"media_urls,omitempty"`
	CustomArgs  map[string]string `json:"custom_args,omitempty"` // flows into the status callback URL
	ContentSID  string            `json:"content_sid,omitempty"` // remote template id
	Send        bool              `json:"send"`
	Traits      map[string]any    `json:"traits,omitempty"`

	// EventOccurredTS, when set, lets the orchestrator measure end-to-end
	// delivery latency from the originating event.
	EventOccurredTS *time.Time `json:"event_occurred_ts,omitempty"`
}

// Settings carries the provider credentials and per-space configuration.
// Passed explicitly per call; no global mutable configuration.
type Settings struct {
	AccountSID          string
	APIKeySID           string
	APIKeySecret        string
	SpaceID             string
	Region              string
	Hostname            string // optional override of the provider API host
	ContentHost         string // optional override of the content API host
	WebhookURL          string // optional base callback URL
	ConnectionOverrides string // optional fragment, defaults applied by the builder
}
