package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bmrengine/internal/app/dto"
	"bmrengine/internal/app/queries"
	"bmrengine/internal/domain/bmr"
	"bmrengine/internal/domain/estimates"
)

// History stores every successful estimate made for a known subject.
// Anonymous requests are served but not recorded. A failed save is logged
// and does not fail the estimate.
func History(repo estimates.Repository, logger *slog.Logger) QueryMiddleware {
	if repo == nil {
		panic("middleware: history repository required")
	}
	log := loggerOrDiscard(logger)
	return func(next queries.Bus) queries.Bus {
		return queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			res, err := next.Ask(ctx, q)
			if err != nil {
				return nil, err
			}
			pq, ok := q.(ProfileQuery)
			if !ok || pq.Subject() == "" {
				return res, nil
			}
			est, ok := res.(dto.Estimate)
			if !ok {
				return res, nil
			}
			rec := estimates.Record{
				ID:        estimates.RecordID(uuid.NewString()),
				SubjectID: pq.Subject(),
				Method:    bmr.Method(est.Method),
				Profile:   pq.BodyProfile(),
				Result:    est.ToDomain(),
				CreatedAt: time.Now().UTC(),
			}
			if est.Metadata != nil {
				rec.Experiment = est.Metadata.Experiment
				rec.Cached = est.Metadata.Cached
			}
			if err := repo.Save(ctx, rec); err != nil {
				log.Warn("estimate history save failed", "subject_id", rec.SubjectID, "error", err)
				return est, nil
			}
			est.Meta().RecordID = string(rec.ID)
			return est, nil
		})
	}
}
