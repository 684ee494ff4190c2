package middleware

import (
	"context"

	"bmrengine/internal/app/queries"
)

// Gate decides whether a subject may use a method.
type Gate interface {
	Allows(method, subject string) error
}

// FeatureGate rejects estimate queries whose method is switched off for the
// subject. It must run after MethodSelection so the method is resolved.
func FeatureGate(gate Gate) QueryMiddleware {
	if gate == nil {
		panic("middleware: gate required")
	}
	return func(next queries.Bus) queries.Bus {
		return queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if eq, ok := q.(EstimateQuery); ok {
				if err := gate.Allows(eq.MethodName(), eq.Subject()); err != nil {
					return nil, err
				}
			}
			return next.Ask(ctx, q)
		})
	}
}
