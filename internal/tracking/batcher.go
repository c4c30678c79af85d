package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/apperr"
	"github.com/smorady/msg-orchestrator/internal/contacts"
	"github.com/smorady/msg-orchestrator/internal/kafka"
	"github.com/smorady/msg-orchestrator/internal/metrics"
	"github.com/smorady/msg-orchestrator/internal/transport"
)

// Source is the event feed, fetch/commit split for at-least-once delivery.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// ContactSink receives identify events as CRM upserts.
type ContactSink interface {
	Upsert(ctx context.Context, c contacts.Contact) error
}

// Batcher drains analytics events and flushes them to the tracking endpoint
// in size/time-bounded batches. Poison messages are committed and skipped;
// a failed flush leaves its messages uncommitted for redelivery.
type Batcher struct {
	Source    Source
	Transport transport.Doer
	Endpoint  string
	APIKey    string
	Log       *zap.Logger
	Stats     metrics.Client
	Contacts  ContactSink // optional

	BatchSize int           // default 100
	BatchWait time.Duration // default 500ms
}

type pending struct {
	event Event
	msg   kafka.Message
}

// Run blocks until ctx is cancelled.
func (b *Batcher) Run(ctx context.Context) error {
	if b.BatchSize <= 0 {
		b.BatchSize = 100
	}
	if b.BatchWait <= 0 {
		b.BatchWait = 500 * time.Millisecond
	}

	msgCh := make(chan kafka.Message, b.BatchSize)
	go func() {
		defer close(msgCh)
		for {
			m, err := b.Source.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				b.Log.Warn("tracking fetch failed", zap.Error(err))
				time.Sleep(200 * time.Millisecond)
				continue
			}
			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	tick := time.NewTicker(b.BatchWait)
	defer tick.Stop()

	var buf []pending

	for {
		select {
		case <-ctx.Done():
			b.flush(context.Background(), buf)
			return ctx.Err()

		case m, ok := <-msgCh:
			if !ok {
				b.flush(context.Background(), buf)
				return ctx.Err()
			}
			var ev Event
			if err := json.Unmarshal(m.Value, &ev); err != nil {
				b.Log.Warn("bad tracking event json", zap.Error(err))
				_ = b.Source.Commit(ctx, m)
				continue
			}
			if ev.EventName == identifyEvent && b.Contacts != nil {
				b.upsertContact(ctx, ev)
				_ = b.Source.Commit(ctx, m)
				continue
			}
			buf = append(buf, pending{event: ev, msg: m})
			if len(buf) >= b.BatchSize {
				if b.flush(ctx, buf) {
					buf = buf[:0]
				}
			}

		case <-tick.C:
			if b.flush(ctx, buf) {
				buf = buf[:0]
			}
		}
	}
}

// flush posts one batch and commits its messages. Returns true when the
// buffer may be discarded.
func (b *Batcher) flush(ctx context.Context, buf []pending) bool {
	if len(buf) == 0 {
		return true
	}

	events := make([]Event, len(buf))
	for i, p := range buf {
		events[i] = p.event
	}
	items := BuildBatch(events)

	if len(items) > 0 {
		header := http.Header{}
		if b.APIKey != "" {
			header.Set("Authorization", "Bearer "+b.APIKey)
		}
		_, err := b.Transport.Do(ctx, transport.Request{
			Method: http.MethodPost,
			URL:    b.Endpoint,
			Header: header,
			JSON:   map[string]any{"batch": items},
		})
		if err != nil {
			b.Log.Error("tracking batch flush failed",
				zap.Int("events", len(buf)),
				zap.Int("items", len(items)),
				zap.Error(err),
			)
			b.Stats.Incr("tracking.flush", 1, []string{"result:failure"})
			return false
		}
	}

	for _, p := range buf {
		if err := b.Source.Commit(ctx, p.msg); err != nil {
			b.Log.Warn("tracking commit failed", zap.Error(err))
		}
	}
	b.Stats.Incr("tracking.flush", 1, []string{"result:success"})
	return true
}

// upsertContact forwards one identify event to the CRM. A duplicate-create
// race comes back retryable; one immediate retry resolves it as an update.
func (b *Batcher) upsertContact(ctx context.Context, ev Event) {
	contact := contacts.Contact{ExternalID: ev.UserID, Traits: map[string]string{}}
	for k, v := range ev.Properties {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch k {
		case "phone":
			contact.Phone = s
		case "email":
			contact.Email = s
		default:
			contact.Traits[k] = s
		}
	}

	err := b.Contacts.Upsert(ctx, contact)
	if err != nil && apperr.IsRetryable(err) {
		err = b.Contacts.Upsert(ctx, contact)
	}
	if err != nil {
		b.Log.Warn("contact upsert failed",
			zap.String("user_id", ev.UserID),
			zap.Error(err),
		)
		b.Stats.Incr("contacts.upsert", 1, []string{"result:failure"})
		return
	}
	b.Stats.Incr("contacts.upsert", 1, []string{"result:success"})
}
