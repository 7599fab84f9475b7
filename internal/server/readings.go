package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	meteringdomain "github.com/openstay/rentledger/internal/metering/domain"
	"github.com/openstay/rentledger/pkg/db/pagination"
)

type submitReadingRequest struct {
	ReadingDate string `json:"reading_date"`
	Value       int64  `json:"value"`
}

func (s *Server) SubmitReading(c *gin.Context) {
	tenant, ok := s.resolveTenant(c)
	if !ok {
		return
	}

	var req submitReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	readingDate, ok2 := parseDate(req.ReadingDate)
	if !ok2 {
		AbortWithError(c, newValidationError("reading_date", "invalid_reading_date", "invalid reading date"))
		return
	}

	reading, err := s.meteringSvc.SubmitReading(c.Request.Context(), meteringdomain.SubmitReadingRequest{
		TenantID:    tenant.ID,
		ReadingDate: readingDate,
		Value:       req.Value,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reading})
}

func (s *Server) ListReadings(c *gin.Context) {
	tenant, ok := s.resolveTenant(c)
	if !ok {
		return
	}

	var query struct {
		PageSize  int    `form:"page_size"`
		PageToken string `form:"page_token"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.meteringSvc.ListReadings(c.Request.Context(), meteringdomain.ListReadingsRequest{
		TenantID: tenant.ID,
		Pagination: pagination.Pagination{
			PageSize:  query.PageSize,
			PageToken: query.PageToken,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBaseline(c *gin.Context) {
	tenant, ok := s.resolveTenant(c)
	if !ok {
		return
	}

	asOf, ok2 := parseDate(c.Query("as_of"))
	if !ok2 {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "invalid as_of date"))
		return
	}

	baseline, err := s.meteringSvc.ResolveBaseline(c.Request.Context(), tenant.ID, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"value":             baseline.Value,
		"source_reading_id": baseline.SourceReadingID,
	}})
}
