package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
)

type createRoomRequest struct {
	Name     string `json:"name"`
	BaseRent int64  `json:"base_rent"`
}

type createTenantRequest struct {
	Name     string `json:"name"`
	BaseRent int64  `json:"base_rent"`
}

type occupyRequest struct {
	RoomID            string `json:"room_id"`
	StartDate         string `json:"start_date"`
	MeterReadingStart int64  `json:"meter_reading_start"`
}

type vacateRequest struct {
	EndDate string `json:"end_date"`
}

func (s *Server) CreateRoom(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	room, err := s.directorySvc.CreateRoom(c.Request.Context(), directorydomain.CreateRoomRequest{
		OwnerID:  actor.UserID,
		Name:     strings.TrimSpace(req.Name),
		BaseRent: req.BaseRent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (s *Server) GetRoom(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	room, err := s.directorySvc.GetRoom(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !actor.CanAccess(room.OwnerID) {
		AbortWithError(c, directorydomain.ErrRoomNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (s *Server) ListRooms(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}

	rooms, err := s.directorySvc.ListRooms(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

func (s *Server) ListTenants(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}

	tenants, err := s.directorySvc.ListTenants(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenants})
}

func (s *Server) CreateTenant(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}

	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tenant, err := s.directorySvc.CreateTenant(c.Request.Context(), directorydomain.CreateTenantRequest{
		OwnerID:  actor.UserID,
		Name:     strings.TrimSpace(req.Name),
		BaseRent: req.BaseRent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

func (s *Server) GetTenant(c *gin.Context) {
	tenant, ok := s.resolveTenant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

func (s *Server) OccupyRoom(c *gin.Context) {
	tenant, ok := s.resolveTenant(c)
	if !ok {
		return
	}

	var req occupyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	roomID, err := snowflakeFromString(req.RoomID)
	if err != nil {
		AbortWithError(c, newValidationError("room_id", "invalid_room_id", "invalid room id"))
		return
	}
	startDate, ok2 := parseDate(req.StartDate)
	if !ok2 {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start date"))
		return
	}

	updated, err := s.directorySvc.Occupy(c.Request.Context(), directorydomain.OccupyRequest{
		TenantID:          tenant.ID,
		RoomID:            roomID,
		StartDate:         startDate,
		MeterReadingStart: req.MeterReadingStart,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (s *Server) VacateRoom(c *gin.Context) {
	tenant, ok := s.resolveTenant(c)
	if !ok {
		return
	}

	var req vacateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	endDate, ok2 := parseDate(req.EndDate)
	if !ok2 {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end date"))
		return
	}

	updated, err := s.directorySvc.Vacate(c.Request.Context(), tenant.ID, endDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": updated})
}

// resolveTenant loads the :id tenant and enforces owner visibility. A tenant
// outside the actor's scope reads as not found, never as forbidden.
func (s *Server) resolveTenant(c *gin.Context) (*directorydomain.Tenant, bool) {
	actor, ok := s.requireActor(c)
	if !ok {
		return nil, false
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}

	tenant, err := s.directorySvc.GetTenant(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	if !actor.CanAccess(tenant.OwnerID) {
		AbortWithError(c, directorydomain.ErrTenantNotFound)
		return nil, false
	}
	return tenant, true
}
