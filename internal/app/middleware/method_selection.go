package middleware

import (
	"context"

	"bmrengine/internal/app/dto"
	"bmrengine/internal/app/features"
	"bmrengine/internal/app/queries"
)

// Assigner places a subject into an experiment arm.
type Assigner interface {
	Assign(subject string) (features.Assignment, bool)
}

// MethodSelection resolves an empty method: an experiment assignment for
// known subjects first, then fallback. Explicit methods are never replaced,
// and unknown names still reach the engine so they fail loudly.
func MethodSelection(assigner Assigner, fallback string) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		return queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			eq, ok := q.(EstimateQuery)
			if !ok {
				return next.Ask(ctx, q)
			}
			if m := eq.MethodName(); m != "" {
				return next.Ask(ctx, eq.WithMethod(m))
			}
			if assigner != nil {
				if a, assigned := assigner.Assign(eq.Subject()); assigned {
					res, err := next.Ask(ctx, eq.WithMethod(a.Method))
					if err != nil {
						return nil, err
					}
					if est, ok := res.(dto.Estimate); ok {
						est.Meta().Experiment = a.Experiment
						return est, nil
					}
					return res, nil
				}
			}
			return next.Ask(ctx, eq.WithMethod(fallback))
		})
	}
}
