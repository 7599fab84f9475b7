package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	settingsdomain "github.com/openstay/rentledger/internal/settings/domain"
)

type updateSettingsRequest struct {
	FixedWaterBill         *int64  `json:"fixed_water_bill,omitempty"`
	ElectricityRatePerUnit *int64  `json:"electricity_rate_per_unit,omitempty"`
	Currency               *string `json:"currency,omitempty"`
}

func (s *Server) GetSettings(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}

	result, err := s.settingsSvc.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) UpdateSettings(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if req.Currency != nil {
		trimmed := strings.ToUpper(strings.TrimSpace(*req.Currency))
		req.Currency = &trimmed
	}

	result, err := s.settingsSvc.Update(c.Request.Context(), settingsdomain.UpdateRequest{
		OwnerID:                actor.UserID,
		FixedWaterBill:         req.FixedWaterBill,
		ElectricityRatePerUnit: req.ElectricityRatePerUnit,
		Currency:               req.Currency,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
