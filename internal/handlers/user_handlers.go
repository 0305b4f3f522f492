package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/services"
	"github.com/copper-mobile/app-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// AccountOperations is the account workflow behind the user endpoints
type AccountOperations interface {
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Exists(ctx context.Context, phone string) (bool, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// UserHandlers serves registration, lookup and login
type UserHandlers struct {
	users AccountOperations
	audit AuditLogger
}

// NewUserHandlers creates the user handlers. audit may be nil.
func NewUserHandlers(users AccountOperations, audit AuditLogger) *UserHandlers {
	return &UserHandlers{users: users, audit: audit}
}

// CreateUser godoc
// @Summary Register account
// @Description Creates an account for a phone number that completed verification
// @Tags users
// @Accept json
// @Produce json
// @Param data body models.CreateUserRequest true "Account data"
// @Success 200 {object} models.CreateUserResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /users/ [post]
func (h *UserHandlers) CreateUser(c *gin.Context) {
	ctx, span := utils.TraceInputParsing(c.Request.Context(), "create_user_request")
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RecordErrorInSpan(span, err, nil)
		span.End()
		writeBindError(c, err)
		return
	}
	span.End()

	user, err := h.users.CreateUser(ctx, req)
	recordAudit(h.audit, c, models.AuditActionCreate, models.AuditResourceUser, req.Phone, err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreateUserResponse{
		Message: services.MessageUserCreated,
		UserID:  user.ID.Hex(),
	})
}

// Exists godoc
// @Summary Check registration
// @Description Reports whether an account exists for a phone number
// @Tags users
// @Produce json
// @Param phone query string true "Phone number with country prefix"
// @Success 200 {object} models.ExistsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /users/existe [get]
func (h *UserHandlers) Exists(c *gin.Context) {
	phone := strings.TrimSpace(c.Query("phone"))
	if phone == "" {
		writeError(c, fmt.Errorf("%w: phone query parameter is required", models.ErrInvalidInput))
		return
	}

	exists, err := h.users.Exists(c.Request.Context(), phone)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ExistsResponse{Registrado: exists})
}

// GetUser godoc
// @Summary Get account
// @Description Returns the account of the authenticated phone number
// @Tags users
// @Produce json
// @Param phone path string true "Phone number with country prefix"
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /users/{phone} [get]
func (h *UserHandlers) GetUser(c *gin.Context) {
	user, err := h.users.GetByPhone(c.Request.Context(), strings.TrimSpace(c.Param("phone")))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Login godoc
// @Summary Log in
// @Description Checks the phone and password and issues a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param data body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /auth/login [post]
func (h *UserHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	resp, err := h.users.Login(c.Request.Context(), req)
	recordAudit(h.audit, c, models.AuditActionLogin, models.AuditResourceUser, req.Phone, err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
