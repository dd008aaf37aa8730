package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/apkscout/models"
	"github.com/use-agent/apkscout/resolver"
)

// Resolve returns a handler for POST /api/v1/resolve.
//
// Flow:
//  1. Parse & validate request.
//  2. Orchestrator.ResolveQuery with the request's budget, if any.
//  3. Fill Timing, return 200. A query with no match is still a success.
func Resolve(o *resolver.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ResolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ResolveResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		// ── 2. Resolve ──────────────────────────────────────────────
		entry, err := o.WithBudget(req.MaxResults).ResolveQuery(c.Request.Context(), req.Query)
		timing := models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
		if err != nil {
			respondError(c, req.Query, err, timing)
			return
		}

		// ── 3. Respond ──────────────────────────────────────────────
		c.JSON(http.StatusOK, models.ResolveResponse{
			Success:  true,
			Query:    req.Query,
			Entry:    entry,
			Complete: entry != nil && entry.Complete(),
			Timing:   timing,
		})
	}
}

// respondError maps a ResolveError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, query string, err error, timing models.TimingInfo) {
	re := models.AsResolveError(err)
	c.JSON(mapErrorToStatus(re), models.ResolveResponse{
		Success: false,
		Query:   query,
		Error:   re.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ResolveError) int {
	switch e.Code {
	case models.ErrCodeChallengeFailed:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeTransport:
		return http.StatusBadGateway // 502
	case models.ErrCodeCanceled:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
