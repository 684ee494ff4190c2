package estimates

import (
	"context"
	"errors"
	"time"

	"bmrengine/internal/domain/bmr"
)

var ErrSubjectRequired = errors.New("estimates: subject id required")

// DefaultHistoryLimit bounds history listings when the caller asks for none.
const DefaultHistoryLimit = 20

// MaxHistoryLimit caps a single history listing.
const MaxHistoryLimit = 500

type RecordID string

// Record is one served estimate kept for audit and history views.
type Record struct {
	ID         RecordID
	SubjectID  string
	Method     bmr.Method
	Profile    bmr.Profile
	Result     bmr.EstimateResult
	Experiment string
	Cached     bool
	CreatedAt  time.Time
}

// Repository persists records. ListBySubject returns newest first.
type Repository interface {
	Save(ctx context.Context, rec Record) error
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]Record, error)
	Count(ctx context.Context) (int64, error)
}

// NormalizeLimit maps non-positive limits to the default and caps large ones.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
