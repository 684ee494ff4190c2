package middleware

import (
	"context"
	"log/slog"
	"time"

	"bmrengine/internal/app/dto"
	"bmrengine/internal/app/outbox"
	"bmrengine/internal/app/queries"
	"bmrengine/internal/domain/estimates"
	"bmrengine/internal/domain/shared/events"
)

// Events records a completed or failed event for every estimate query.
func Events(box outbox.Outbox, encoder outbox.EventEncoder, logger *slog.Logger) QueryMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	log := loggerOrDiscard(logger)
	return func(next queries.Bus) queries.Bus {
		return queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			eq, ok := q.(EstimateQuery)
			if !ok {
				return next.Ask(ctx, q)
			}
			res, err := next.Ask(ctx, q)
			var ev events.DomainEvent
			now := time.Now().UTC()
			if err != nil {
				ev = estimates.EstimateFailedEvent{
					SubjectID: eq.Subject(),
					Method:    eq.MethodName(),
					Reason:    err.Error(),
					At:        now,
				}
			} else if est, ok := res.(dto.Estimate); ok {
				completed := estimates.EstimateCompletedEvent{
					SubjectID:        eq.Subject(),
					Method:           est.Method,
					BMR:              est.BMR,
					Confidence:       est.Confidence,
					BodyFatEstimated: est.BodyFatEstimated,
					At:               now,
				}
				if est.Metadata != nil {
					completed.RecordID = estimates.RecordID(est.Metadata.RecordID)
					completed.Cached = est.Metadata.Cached
				}
				ev = completed
			}
			if ev != nil {
				if recErr := outbox.Record(ctx, box, encoder, ev); recErr != nil {
					log.Warn("estimate event not recorded", "event", ev.EventName(), "error", recErr)
				}
			}
			return res, err
		})
	}
}
