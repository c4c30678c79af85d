package channel

import (
	"strings"

	"github.com/smorady/msg-orchestrator/internal/model"
)

// Channel is a per-channel capability value composed into the shared
// evaluator, resolver and classifier. Adding a channel means adding a value
// here, not subclassing anything.
type Channel struct {
	Name                  string   // "sms" | "whatsapp"
	ExternalIDType        string   // external id type carrying the recipient
	ExternalIDKey         string   // key reported in the status callback URL
	SupportedContentTypes []string // template-type whitelist
	AddressPrefix         string   // prepended to To/From on the wire
}

var SMS = Channel{
	Name:           "sms",
	ExternalIDType: "phone",
	ExternalIDKey:  "phone",
	SupportedContentTypes: []string{
		"twilio/text",
		"twilio/media",
	},
}

var WhatsApp = Channel{
	Name:           "whatsapp",
	ExternalIDType: "phone",
	ExternalIDKey:  "phone",
	SupportedContentTypes: []string{
		"twilio/text",
		"twilio/media",
		"twilio/quick-reply",
		"twilio/call-to-action",
		"twilio/list-picker",
		"twilio/card",
		"whatsapp/card",
		"whatsapp/authentication",
	},
	AddressPrefix: "whatsapp:",
}

// ByName resolves a channel from its wire name, case-insensitively.
func ByName(name string) (Channel, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SMS.Name:
		return SMS, true
	case WhatsApp.Name:
		return WhatsApp, true
	}
	return Channel{}, false
}

// SupportsContentType reports whether a template type is deliverable on
// this channel.
func (ch Channel) SupportsContentType(t string) bool {
	for _, s := range ch.SupportedContentTypes {
		if s == t {
			return true
		}
	}
	return false
}

// MatchExternalID locates the payload entry carrying this channel's
// recipient: type must match and the channel type compares
// case-insensitively.
func (ch Channel) MatchExternalID(ids []model.ExternalID) (model.ExternalID, bool) {
	for _, id := range ids {
		if id.Type == ch.ExternalIDType && strings.EqualFold(id.ChannelType, ch.Name) {
			return id, true
		}
	}
	return model.ExternalID{}, false
}

// Address formats a phone number for this channel's wire representation.
func (ch Channel) Address(number string) string {
	if number == "" || ch.AddressPrefix == "" {
		return number
	}
	if strings.HasPrefix(number, ch.AddressPrefix) {
		return number
	}
	return ch.AddressPrefix + number
}
