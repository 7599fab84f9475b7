package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/openstay/rentledger/internal/authscope"
	billingdomain "github.com/openstay/rentledger/internal/billing/domain"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	meteringdomain "github.com/openstay/rentledger/internal/metering/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation sentinel", billingdomain.ErrInvalidPeriod, http.StatusBadRequest},
		{"negative consumption", &meteringdomain.NegativeConsumptionError{Value: 90, Baseline: 100}, http.StatusBadRequest},
		{"validation errors", newValidationError("month", "invalid_month", "invalid month"), http.StatusBadRequest},
		{"forbidden", authscope.ErrForbidden, http.StatusForbidden},
		{"bill not found", billingdomain.ErrBillNotFound, http.StatusNotFound},
		{"tenant not found", directorydomain.ErrTenantNotFound, http.StatusNotFound},
		{"room occupied", directorydomain.ErrRoomOccupied, http.StatusConflict},
		{"overpayment", billingdomain.ErrOverpayment, http.StatusConflict},
		{"not occupied", billingdomain.ErrTenantNotOccupied, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := mapError(tc.err)
			assert.Equal(t, tc.status, status)
		})
	}
}

func TestMapError_NegativeConsumptionPayload(t *testing.T) {
	_, payload := mapError(&meteringdomain.NegativeConsumptionError{Value: 90, Baseline: 100})
	assert.Equal(t, "validation_error", payload.Type)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "negative_consumption", payload.Errors[0].Code)
	}
}
