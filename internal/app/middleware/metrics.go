package middleware

import (
	"context"
	"errors"
	"time"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/queries"
)

// Observer receives one sample per dispatched message.
type Observer interface {
	ObserveMessage(kind, key, outcome string, elapsed time.Duration)
}

// Outcome classifies a handler error for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func Metrics(o Observer) CommandMiddleware {
	if o == nil {
		return nil
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			o.ObserveMessage("command", cmd.Key(), Outcome(err), time.Since(start))
			return res, err
		})
	}
}

func QueryMetrics(o Observer) QueryMiddleware {
	if o == nil {
		return nil
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			o.ObserveMessage("query", q.Key(), Outcome(err), time.Since(start))
			return res, err
		})
	}
}
