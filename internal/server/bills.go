package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/openstay/rentledger/internal/billing/domain"
	"github.com/openstay/rentledger/pkg/db/pagination"
)

type generateBillRequest struct {
	Month          int                         `json:"month"`
	Year           int                         `json:"year"`
	Overrides      *billingdomain.Overrides    `json:"overrides,omitempty"`
	InitialPayment *billingdomain.PaymentInput `json:"initial_payment,omitempty"`
}

type recordPaymentRequest struct {
	Amount int64          `json:"amount"`
	Mode   string         `json:"mode"`
	Note   string         `json:"note"`
	Meta   map[string]any `json:"metadata,omitempty"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) GenerateBill(c *gin.Context) {
	tenant, ok := s.resolveTenant(c)
	if !ok {
		return
	}

	var req generateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bill, err := s.billingSvc.GenerateBill(c.Request.Context(), billingdomain.GenerateBillRequest{
		TenantID:       tenant.ID,
		Month:          req.Month,
		Year:           req.Year,
		Overrides:      req.Overrides,
		InitialPayment: req.InitialPayment,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bill})
}

func (s *Server) GetBill(c *gin.Context) {
	bill, ok := s.resolveBill(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bill})
}

func (s *Server) GetCurrentBill(c *gin.Context) {
	tenant, ok := s.resolveTenant(c)
	if !ok {
		return
	}

	month, err := parseIntQuery(c, "month")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	year, err := parseIntQuery(c, "year")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bill, err := s.billingSvc.CurrentBill(c.Request.Context(), tenant.ID, month, year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bill})
}

func (s *Server) ListBills(c *gin.Context) {
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

	resp, err := s.billingSvc.ListBills(c.Request.Context(), billingdomain.ListBillsRequest{
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

func (s *Server) RecordPayment(c *gin.Context) {
	bill, ok := s.resolveBill(c)
	if !ok {
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.billingSvc.RecordPayment(c.Request.Context(), billingdomain.RecordPaymentRequest{
		BillID: bill.ID,
		Amount: req.Amount,
		Mode:   strings.TrimSpace(req.Mode),
		Note:   strings.TrimSpace(req.Note),
		Meta:   req.Meta,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (s *Server) SetBillStatus(c *gin.Context) {
	if _, ok := s.requireAdmin(c); !ok {
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bill, err := s.billingSvc.SetStatus(c.Request.Context(), id, billingdomain.BillStatus(strings.ToUpper(strings.TrimSpace(req.Status))))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bill})
}

// resolveBill loads the :id bill and enforces owner visibility.
func (s *Server) resolveBill(c *gin.Context) (*billingdomain.MonthlyBill, bool) {
	actor, ok := s.requireActor(c)
	if !ok {
		return nil, false
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}

	bill, err := s.billingSvc.GetBill(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	if !actor.CanAccess(bill.OwnerID) {
		AbortWithError(c, billingdomain.ErrBillNotFound)
		return nil, false
	}
	return bill, true
}
