package sendability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/apperr"
	"github.com/smorady/msg-orchestrator/internal/channel"
	"github.com/smorady/msg-orchestrator/internal/metrics"
	"github.com/smorady/msg-orchestrator/internal/model"
)

// Status is the send decision for one message.
type Status string

const (
	ShouldSend    Status = "should_send"
	DoNotSend     Status = "do_not_send"
	SendDisabled  Status = "send_disabled"
	NoSenderPhone Status = "no_sender_phone"
)

// Subscription status sets. Unknown values are a hard validation failure,
// never a silent skip.
var (
	SendableStatuses    = []string{"subscribed", "true"}
	NonSendableStatuses = []string{"unsubscribed", "did not subscribed", "false"}
)

// Result carries the decision. Phone is set exactly when Status is
// ShouldSend.
type Result struct {
	Status Status
	Phone  string
}

// Sendable reports whether the message may be dispatched.
func (r Result) Sendable() bool { return r.Status == ShouldSend }

// Evaluator decides whether a message should be dispatched given its
// consent state and explicit send gate.
type Evaluator struct {
	Log   *zap.Logger
	Stats metrics.Client
}

func NewEvaluator(log *zap.Logger, stats metrics.Client) *Evaluator {
	return &Evaluator{Log: log, Stats: stats}
}

// Evaluate applies the decision rules for one payload on one channel.
// Non-error outcomes other than ShouldSend are silent no-ops for the
// caller: completed, nothing sent.
func (e *Evaluator) Evaluate(p model.MessagePayload, ch channel.Channel) (Result, error) {
	subscription := ""
	extID, matched := ch.MatchExternalID(p.ExternalIDs)
	if matched {
		subscription = normalize(extID.SubscriptionStatus)
	}

	if !p.Send {
		e.Stats.Incr("sendability", 1, tags(ch, "send_disabled"))
		return Result{Status: SendDisabled}, nil
	}

	switch {
	case subscription == "" || contains(NonSendableStatuses, subscription):
		e.Stats.Incr("sendability", 1, tags(ch, "not_subscribed"))
		return Result{Status: DoNotSend}, nil

	case contains(SendableStatuses, subscription):
		e.Stats.Incr("sendability", 1, tags(ch, "subscribed"))

	default:
		e.Stats.Incr("sendability", 1, tags(ch, "invalid_status"))
		e.Log.Error("unrecognized subscription status",
			zap.String("channel", ch.Name),
			zap.String("status", subscription),
		)
		return Result{}, apperr.Validation(
			"invalid_subscription_status",
			fmt.Sprintf("unrecognized subscription status %q", subscription),
		)
	}

	phone := p.ToNumber
	if phone == "" {
		phone = extID.ID
	}
	if phone == "" {
		return Result{Status: NoSenderPhone}, nil
	}
	return Result{Status: ShouldSend, Phone: phone}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func tags(ch channel.Channel, outcome string) []string {
	return []string{"channel:" + ch.Name, "outcome:" + outcome}
}
