package middleware

import (
	"context"
	"time"

	"bmrengine/internal/app/queries"
)

// EstimateRecorder receives one observation per estimate query.
type EstimateRecorder interface {
	ObserveEstimate(method, outcome string, elapsed time.Duration)
}

// Metrics reports estimate queries to every recorder; other queries pass through.
func Metrics(recorders ...EstimateRecorder) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		return queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			eq, ok := q.(EstimateQuery)
			if !ok {
				return next.Ask(ctx, q)
			}
			start := time.Now()
			res, err := next.Ask(ctx, q)
			elapsed := time.Since(start)
			method, outcome := methodOf(eq, res), Outcome(err)
			for _, r := range recorders {
				if r != nil {
					r.ObserveEstimate(method, outcome, elapsed)
				}
			}
			return res, err
		})
	}
}
