package ginserver

import (
	"errors"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"bmrengine/internal/app/dto"
	estimateapp "bmrengine/internal/app/handlers/estimate"
	"bmrengine/internal/app/middleware"
	"bmrengine/internal/app/queries"
	"bmrengine/internal/domain/estimates"
	"bmrengine/internal/infra/obs"
)

type EstimateHandler struct {
	Queries queries.Bus
}

func (h EstimateHandler) Estimate(c *gin.Context) {
	var req dto.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body: " + err.Error(), Code: "bad_request"})
		return
	}
	profile, err := req.Profile.ToDomain()
	if err != nil {
		writeError(c, err)
		return
	}
	query := estimateapp.EstimateQuery{SubjectID: req.SubjectID, Profile: profile, Method: req.Method}
	result, err := queries.Ask[estimateapp.EstimateQuery, dto.Estimate](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	result.Meta().RequestID = obs.RequestIDFromContext(c.Request.Context())
	c.JSON(http.StatusOK, dto.EstimateResponse{Success: true, Estimate: result})
}

func (h EstimateHandler) Methods(c *gin.Context) {
	catalog, err := queries.Ask[estimateapp.ListMethodsQuery, dto.MethodCatalog](c.Request.Context(), h.Queries, estimateapp.ListMethodsQuery{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "default": catalog.Default, "methods": catalog.Items})
}

func (h EstimateHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be an integer", Code: "bad_request"})
			return
		}
		limit = n
	}
	query := estimateapp.HistoryQuery{SubjectID: c.Param("subject"), Limit: limit}
	history, err := queries.Ask[estimateapp.HistoryQuery, dto.History](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subject_id": history.SubjectID, "items": history.Items})
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), dto.NewError(err, middleware.Outcome(err)))
}

func statusFor(err error) int {
	switch middleware.Outcome(err) {
	case middleware.OutcomeInvalidProfile, middleware.OutcomeUnknownMethod:
		return http.StatusBadRequest
	case middleware.OutcomeMethodDisabled:
		return http.StatusForbidden
	}
	switch {
	case errors.Is(err, estimates.ErrSubjectRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var _ EstimateHTTP = EstimateHandler{}
