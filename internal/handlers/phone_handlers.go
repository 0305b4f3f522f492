package handlers

import (
	"net/http"
	"strings"

	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// PhoneHandlers serves the phone number breakdown endpoint
type PhoneHandlers struct {
	rules utils.PhoneRules
}

// NewPhoneHandlers creates the phone handlers
func NewPhoneHandlers(rules utils.PhoneRules) *PhoneHandlers {
	return &PhoneHandlers{rules: rules}
}

// ValidatePhoneNumber godoc
// @Summary Validate phone number
// @Description Splits a phone number at its accepted country prefix and reports its region
// @Tags validation
// @Accept json
// @Produce json
// @Param data body models.PhoneValidationRequest true "Phone number"
// @Success 200 {object} models.PhoneValidationResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /validate/phone [post]
func (h *PhoneHandlers) ValidatePhoneNumber(c *gin.Context) {
	var req models.PhoneValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	phone := strings.TrimSpace(req.Phone)
	resp := models.PhoneValidationResponse{Phone: phone}

	_, span := utils.TraceInputValidation(c.Request.Context(), "phone_rules", "phone")
	parsed, err := h.rules.Validate(phone)
	utils.AddSpanAttribute(span, "validation.valid", err == nil)
	span.End()
	if err != nil {
		resp.Reason = strings.TrimPrefix(err.Error(), models.ErrInvalidInput.Error()+": ")
		c.JSON(http.StatusOK, resp)
		return
	}

	resp.Valid = true
	resp.CountryPrefix = parsed.Prefix
	resp.NationalNumber = parsed.National
	resp.Region = utils.PhoneRegion(phone)
	if e164, ok := utils.FormatE164(phone); ok {
		resp.E164 = e164
	}

	c.JSON(http.StatusOK, resp)
}
