package middleware

import (
	"context"
	"log/slog"
	"time"

	"bmrengine/internal/app/queries"
)

// Logging writes one line per query with its duration and outcome.
func Logging(logger *slog.Logger) QueryMiddleware {
	log := loggerOrDiscard(logger)
	return func(next queries.Bus) queries.Bus {
		return queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			attrs := []any{"query", q.Key(), "duration", time.Since(start), "outcome", Outcome(err)}
			if eq, ok := q.(EstimateQuery); ok {
				attrs = append(attrs, "method", methodOf(eq, res))
				if s := eq.Subject(); s != "" {
					attrs = append(attrs, "subject_id", s)
				}
			}
			if err != nil {
				log.Warn("query failed", append(attrs, "error", err)...)
				return nil, err
			}
			log.Info("query served", attrs...)
			return res, nil
		})
	}
}
