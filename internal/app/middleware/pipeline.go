package middleware

import (
	"errors"
	"io"
	"log/slog"

	"bmrengine/internal/app/dto"
	"bmrengine/internal/app/features"
	"bmrengine/internal/app/queries"
	"bmrengine/internal/domain/bmr"
)

// QueryMiddleware wraps a query bus with extra behavior.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainQueries builds a query bus wrapped with the provided middleware (outermost first).
func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// EstimateQuery is implemented by queries that carry a method selector.
type EstimateQuery interface {
	queries.Query
	Subject() string
	MethodName() string
	WithMethod(method string) queries.Query
}

// ProfileQuery exposes the profile an estimate was computed from.
type ProfileQuery interface {
	EstimateQuery
	BodyProfile() bmr.Profile
}

const (
	OutcomeSuccess          = "success"
	OutcomeInvalidProfile   = "invalid_profile"
	OutcomeUnknownMethod    = "unknown_method"
	OutcomeMethodDisabled   = "method_disabled"
	OutcomeComputationError = "computation_error"
	OutcomeError            = "error"
)

// Outcome classifies an error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, bmr.ErrInvalidProfile):
		return OutcomeInvalidProfile
	case errors.Is(err, bmr.ErrUnknownMethod):
		return OutcomeUnknownMethod
	case errors.Is(err, features.ErrMethodDisabled):
		return OutcomeMethodDisabled
	case errors.Is(err, bmr.ErrComputation):
		return OutcomeComputationError
	default:
		return OutcomeError
	}
}

// methodOf prefers the method reported by the result over the requested one.
func methodOf(q EstimateQuery, res any) string {
	if est, ok := res.(dto.Estimate); ok && est.Method != "" {
		return est.Method
	}
	if m := q.MethodName(); m != "" {
		return m
	}
	return "unresolved"
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
