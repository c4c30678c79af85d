package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/apperr"
	"github.com/smorady/msg-orchestrator/internal/callback"
	"github.com/smorady/msg-orchestrator/internal/channel"
	"github.com/smorady/msg-orchestrator/internal/content"
	"github.com/smorady/msg-orchestrator/internal/metrics"
	"github.com/smorady/msg-orchestrator/internal/model"
	"github.com/smorady/msg-orchestrator/internal/providererr"
	"github.com/smorady/msg-orchestrator/internal/redact"
	"github.com/smorady/msg-orchestrator/internal/sendability"
	"github.com/smorady/msg-orchestrator/internal/track"
	"github.com/smorady/msg-orchestrator/internal/twilio"
	"github.com/smorady/msg-orchestrator/internal/util"
)

// Sender dispatches one message to the provider.
type Sender interface {
	SendMessage(ctx context.Context, p twilio.SendParams) (twilio.SendResult, error)
}

// DispatchStore records the audit row for each processed payload.
// Best-effort: a store failure never fails a send that already happened.
type DispatchStore interface {
	Insert(ctx context.Context, d model.Dispatch) error
}

// Outcome reports what happened to one payload.
type Outcome struct {
	DispatchID  string
	Decision    sendability.Result
	ProviderSID string
}

// Orchestrator runs the per-message chain: sendability, optional template
// resolution, callback construction, dispatch, classification on failure.
// One sequential flow per message; no state survives the call.
type Orchestrator struct {
	Settings   model.Settings
	Evaluator  *sendability.Evaluator
	Resolver   *content.Resolver
	Classifier *providererr.Classifier
	Sender     Sender
	Tracker    *track.Tracker
	Stats      metrics.Client
	Log        *zap.Logger
	Store      DispatchStore // optional
}

// Send processes one payload on one channel.
func (o *Orchestrator) Send(ctx context.Context, payload model.MessagePayload, ch channel.Channel) (Outcome, error) {
	details := model.LogDetails{
		"channel":  ch.Name,
		"space_id": o.Settings.SpaceID,
	}
	if payload.ContentSID != "" {
		details.Set("content_sid", payload.ContentSID)
	}
	chTag := []string{"channel:" + ch.Name}

	return track.Wrap(ctx, o.Tracker, "message.send", track.Options{Tags: chTag, Details: details},
		func(ctx context.Context) (Outcome, error) {
			return o.send(ctx, payload, ch, details, chTag)
		})
}

func (o *Orchestrator) send(ctx context.Context, payload model.MessagePayload, ch channel.Channel, details model.LogDetails, chTag []string) (Outcome, error) {
	out := Outcome{DispatchID: util.NewID()}

	decision, err := track.Wrap(ctx, o.Tracker, "sendability.evaluate", track.Options{Tags: chTag, Details: details},
		func(context.Context) (sendability.Result, error) {
			return o.Evaluator.Evaluate(payload, ch)
		})
	if err != nil {
		return out, err
	}
	out.Decision = decision

	if !decision.Sendable() {
		// completed with nothing sent
		o.record(ctx, model.Dispatch{
			ID:      out.DispatchID,
			Channel: ch.Name,
			Outcome: string(decision.Status),
			Status:  model.DispatchSkipped,
		})
		return out, nil
	}
	details.Set("to", redact.Mask(decision.Phone))

	body, media, err := o.resolveContent(ctx, payload, ch, details, chTag)
	if err != nil {
		return out, err
	}

	if payload.From == "" {
		return out, apperr.Validation("missing_from", "From number not in payload")
	}

	cbURL, err := callback.Build(
		o.Settings.WebhookURL,
		o.Settings.ConnectionOverrides,
		o.Settings.SpaceID,
		payload.CustomArgs,
		ch.ExternalIDKey,
		decision.Phone,
	)
	if err != nil {
		return out, err
	}

	res, err := track.Wrap(ctx, o.Tracker, "provider.send", track.Options{
		Tags:    chTag,
		Details: details,
		OnError: func(err error) (error, []string) {
			return o.Classifier.Classify(err, ch, details), nil
		},
	}, func(ctx context.Context) (twilio.SendResult, error) {
		return o.Sender.SendMessage(ctx, twilio.SendParams{
			To:             ch.Address(decision.Phone),
			From:           ch.Address(payload.From),
			Body:           body,
			MediaURLs:      media,
			StatusCallback: cbURL,
		})
	})
	if err != nil {
		o.record(ctx, model.Dispatch{
			ID:        out.DispatchID,
			Channel:   ch.Name,
			To:        redact.Mask(decision.Phone),
			Outcome:   string(decision.Status),
			Status:    model.DispatchFailed,
			ErrorCode: apperr.CodeOf(err),
		})
		return out, err
	}
	out.ProviderSID = res.SID

	if ts := payload.EventOccurredTS; ts != nil {
		o.Stats.Histogram("delivery.latency", time.Since(*ts).Seconds(), chTag)
	}

	o.record(ctx, model.Dispatch{
		ID:          out.DispatchID,
		Channel:     ch.Name,
		To:          redact.Mask(decision.Phone),
		Outcome:     string(decision.Status),
		ProviderSID: res.SID,
		Status:      model.DispatchSent,
	})
	return out, nil
}

// resolveContent produces the final body and media: template-sourced when a
// content SID is present, otherwise the payload's inline fields. Both paths
// render traits.
func (o *Orchestrator) resolveContent(ctx context.Context, payload model.MessagePayload, ch channel.Channel, details model.LogDetails, chTag []string) (string, []string, error) {
	var selected model.TemplateContent

	if payload.ContentSID != "" {
		tpl, err := track.Wrap(ctx, o.Tracker, "content.fetch", track.Options{Tags: chTag, Details: details},
			func(ctx context.Context) (model.ContentTemplate, error) {
				return o.Resolver.FetchTemplate(ctx, payload.ContentSID, o.Settings, ch)
			})
		if err != nil {
			return "", nil, err
		}
		if selected, err = o.Resolver.ExtractTypes(tpl, ch); err != nil {
			return "", nil, err
		}
	} else {
		selected = model.TemplateContent{Body: payload.Body, Media: payload.MediaURLs}
	}

	rendered, err := track.Wrap(ctx, o.Tracker, "content.render", track.Options{Tags: chTag, Details: details},
		func(context.Context) (model.TemplateContent, error) {
			return o.Resolver.RenderContent(selected, payload.Traits, o.Settings, ch)
		})
	if err != nil {
		return "", nil, err
	}
	return rendered.Body, rendered.Media, nil
}

func (o *Orchestrator) record(ctx context.Context, d model.Dispatch) {
	if o.Store == nil {
		return
	}
	if err := o.Store.Insert(ctx, d); err != nil {
		o.Log.Error("dispatch record insert failed", zap.String("dispatch_id", d.ID), zap.Error(err))
	}
}
