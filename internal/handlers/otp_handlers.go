package handlers

import (
	"context"
	"net/http"

	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/copper-mobile/app-api/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OTPOperations is the verification workflow behind the OTP endpoints
type OTPOperations interface {
	SendCode(ctx context.Context, phone string) (string, error)
	ValidateCode(ctx context.Context, phone, code string) (string, error)
}

// OTPHandlers serves the phone verification endpoints
type OTPHandlers struct {
	otp   OTPOperations
	audit AuditLogger
}

// NewOTPHandlers creates the OTP handlers. audit may be nil.
func NewOTPHandlers(otp OTPOperations, audit AuditLogger) *OTPHandlers {
	return &OTPHandlers{otp: otp, audit: audit}
}

// SendOTP godoc
// @Summary Send verification code
// @Description Issues a one time code for an unregistered phone number and delivers it by SMS
// @Tags auth
// @Accept json
// @Produce json
// @Param data body models.SendOTPRequest true "Phone number with country prefix"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /auth/send-otp [post]
func (h *OTPHandlers) SendOTP(c *gin.Context) {
	ctx, span := utils.TraceInputParsing(c.Request.Context(), "send_otp_request")
	var req models.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RecordErrorInSpan(span, err, nil)
		span.End()
		writeBindError(c, err)
		return
	}
	span.End()

	message, err := h.otp.SendCode(ctx, req.Phone)
	recordAudit(h.audit, c, models.AuditActionSendCode, models.AuditResourcePhoneVerification, req.Phone, err)
	if err != nil {
		observability.Logger().Info("send code rejected",
			zap.String("phone", observability.MaskPhone(req.Phone)),
			zap.String("kind", models.KindOf(err)))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: message})
}

// ValidateOTP godoc
// @Summary Validate verification code
// @Description Checks the code sent to a phone number and marks the number as verified
// @Tags auth
// @Accept json
// @Produce json
// @Param data body models.ValidateOTPRequest true "Phone number and code"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /auth/validate-otp [post]
func (h *OTPHandlers) ValidateOTP(c *gin.Context) {
	ctx, span := utils.TraceInputParsing(c.Request.Context(), "validate_otp_request")
	var req models.ValidateOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RecordErrorInSpan(span, err, nil)
		span.End()
		writeBindError(c, err)
		return
	}
	span.End()

	message, err := h.otp.ValidateCode(ctx, req.Phone, req.Code)
	recordAudit(h.audit, c, models.AuditActionValidateCode, models.AuditResourcePhoneVerification, req.Phone, err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: message})
}
