package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/glefebvre/mediasorter/internal/errors"
	"github.com/glefebvre/mediasorter/internal/history"
)

func (s *Server) healthCheck(c *gin.Context) {
	if err := s.store.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (s *Server) listRuns(c *gin.Context) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	runs, total, err := s.store.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPaginated(runs, total, limit, offset))
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

func (s *Server) listPlacements(c *gin.Context) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	placements, total, err := s.store.ListPlacements(c.Request.Context(), history.PlacementFilter{
		RunID:     c.Query("run_id"),
		MediaType: c.Query("media_type"),
		Outcome:   c.Query("outcome"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPaginated(placements, total, limit, offset))
}

// pagination reads limit and offset, writing a 400 on malformed values
func pagination(c *gin.Context) (int, int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(history.DefaultLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit", Message: "limit must be a positive integer"})
		return 0, 0, false
	}
	if limit > history.MaxLimit {
		limit = history.MaxLimit
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset", Message: "offset must be zero or a positive integer"})
		return 0, 0, false
	}
	return limit, offset, true
}

func (s *Server) writeError(c *gin.Context, err error) {
	if apperrors.GetErrorCode(err) == apperrors.CodeNotFound {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Message: err.Error()})
		return
	}
	s.log.ErrorContext(c.Request.Context(), "History query failed", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Message: "failed to query history"})
}
