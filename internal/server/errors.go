package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openstay/rentledger/internal/authscope"
	billingdomain "github.com/openstay/rentledger/internal/billing/domain"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	meteringdomain "github.com/openstay/rentledger/internal/metering/domain"
	settingsdomain "github.com/openstay/rentledger/internal/settings/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErrs *ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErrs.Errors,
		}
	}

	var negErr *meteringdomain.NegativeConsumptionError
	if errors.As(err, &negErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "value",
					Code:    "negative_consumption",
					Message: negErr.Error(),
				},
			},
		}
	}

	switch {
	case isValidationSentinel(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    err.Error(),
					Message: err.Error(),
				},
			},
		}

	case errors.Is(err, authscope.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}

	case isNotFound(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}

	case isConflict(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func isValidationSentinel(err error) bool {
	for _, target := range []error{
		meteringdomain.ErrInvalidTenant,
		meteringdomain.ErrInvalidReadingDate,
		meteringdomain.ErrInvalidValue,
		meteringdomain.ErrNoOccupancy,
		billingdomain.ErrInvalidTenant,
		billingdomain.ErrInvalidPeriod,
		billingdomain.ErrInvalidAmount,
		billingdomain.ErrInvalidStatus,
		directorydomain.ErrInvalidOwner,
		directorydomain.ErrInvalidName,
		directorydomain.ErrInvalidRent,
		directorydomain.ErrInvalidStartDate,
		directorydomain.ErrInvalidEndDate,
		directorydomain.ErrInvalidBaseline,
		settingsdomain.ErrInvalidOwner,
		settingsdomain.ErrInvalidRate,
		settingsdomain.ErrInvalidWater,
		settingsdomain.ErrInvalidCurrency,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	for _, target := range []error{
		billingdomain.ErrBillNotFound,
		directorydomain.ErrTenantNotFound,
		directorydomain.ErrRoomNotFound,
		gorm.ErrRecordNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isConflict(err error) bool {
	for _, target := range []error{
		directorydomain.ErrRoomOccupied,
		directorydomain.ErrTenantInactive,
		billingdomain.ErrTenantNotOccupied,
		billingdomain.ErrOverpayment,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
