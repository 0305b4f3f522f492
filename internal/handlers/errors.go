package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// statusForKind maps an error kind to its HTTP status
var statusForKind = map[string]int{
	models.KindInvalidInput:    http.StatusBadRequest,
	models.KindConflict:        http.StatusConflict,
	models.KindNotFound:        http.StatusNotFound,
	models.KindUnauthorized:    http.StatusUnauthorized,
	models.KindExpired:         http.StatusGone,
	models.KindDispatchFailure: http.StatusInternalServerError,
	models.KindForbidden:       http.StatusForbidden,
	models.KindRateLimited:     http.StatusTooManyRequests,
	models.KindInternal:        http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for an error chain
func StatusFor(err error) int {
	if status, ok := statusForKind[models.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders a service error. Internal errors are logged and their
// details are kept out of the response.
func writeError(c *gin.Context, err error) {
	kind := models.KindOf(err)
	status := StatusFor(err)
	message := err.Error()

	if kind == models.KindInternal {
		observability.Logger().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("RequestID")),
			zap.Error(err))
		message = "Internal server error"
	}

	c.JSON(status, models.ErrorResponse{Error: message, Kind: kind})
}

// writeBindError renders a request binding failure as invalid input
func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: "Invalid request body: " + describeBindError(err),
		Kind:  models.KindInvalidInput,
	})
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, describeFieldError(fe))
	}
	return strings.Join(fields, "; ")
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "numeric":
		return field + " must contain only digits"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
