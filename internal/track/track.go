package track

import (
	"context"

	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/metrics"
	"github.com/smorady/msg-orchestrator/internal/model"
)

// Tracker wraps pipeline operations with start/success/failure logging and
// stats so individual components carry no instrumentation boilerplate.
type Tracker struct {
	Log   *zap.Logger
	Stats metrics.Client
}

func New(log *zap.Logger, stats metrics.Client) *Tracker {
	return &Tracker{Log: log, Stats: stats}
}

// Options tunes one wrapped invocation.
type Options struct {
	// Tags are attached to the operation counter on both outcomes.
	Tags []string
	// Details, when set, is included on the failure log.
	Details model.LogDetails
	// OnError may substitute the outgoing error and contribute extra metric
	// tags. It never suppresses the failure: a nil substitute keeps the
	// original error.
	OnError func(err error) (error, []string)
}

// Wrap runs fn under instrumentation. The error, possibly remapped by
// OnError, always propagates.
func (t *Tracker) Wrap(ctx context.Context, name string, opts Options, fn func(context.Context) error) error {
	t.Log.Info("Starting: " + name)

	err := fn(ctx)
	if err == nil {
		t.Log.Info("Success: " + name)
		t.Stats.Incr("operation", 1, append([]string{"operation:" + name, "result:success"}, opts.Tags...))
		return nil
	}

	tags := append([]string{"operation:" + name, "result:failure"}, opts.Tags...)
	if opts.OnError != nil {
		sub, extra := opts.OnError(err)
		if sub != nil {
			err = sub
		}
		tags = append(tags, extra...)
	}

	fields := []zap.Field{zap.Error(err)}
	if opts.Details != nil {
		fields = append(fields, zap.Any("details", opts.Details.Fields()))
	}
	t.Log.Error("Failed: "+name, fields...)
	t.Stats.Incr("operation", 1, tags)
	return err
}

// Wrap instruments an operation that produces a value. The zero T is
// returned on failure.
func Wrap[T any](ctx context.Context, t *Tracker, name string, opts Options, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := t.Wrap(ctx, name, opts, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
