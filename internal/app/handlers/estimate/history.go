package estimate

import (
	"context"
	"errors"
	"strings"

	"bmrengine/internal/app/dto"
	"bmrengine/internal/app/queries"
	"bmrengine/internal/domain/estimates"
)

const historyKey = "bmr.history"

var ErrHistoryUnavailable = errors.New("estimate: history repository not configured")

type HistoryQuery struct {
	SubjectID string
	Limit     int
}

func (HistoryQuery) Key() string { return historyKey }

type HistoryHandler struct {
	Repository estimates.Repository
}

func (h *HistoryHandler) Handle(ctx context.Context, q HistoryQuery) (dto.History, error) {
	if h.Repository == nil {
		return dto.History{}, ErrHistoryUnavailable
	}
	subject := strings.TrimSpace(q.SubjectID)
	if subject == "" {
		return dto.History{}, estimates.ErrSubjectRequired
	}
	records, err := h.Repository.ListBySubject(ctx, subject, estimates.NormalizeLimit(q.Limit))
	if err != nil {
		return dto.History{}, err
	}
	return dto.MapHistory(subject, records), nil
}

var _ queries.Handler[HistoryQuery, dto.History] = (*HistoryHandler)(nil)
