package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/copper-mobile/app-api/internal/logging"
	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/copper-mobile/app-api/internal/utils"
	"go.uber.org/zap"
)

// MessageUserCreated acknowledges a successful registration
const MessageUserCreated = "Usuario creado con éxito"

// PhoneVerifier is the verification gate consumed by registration
type PhoneVerifier interface {
	IsVerified(ctx context.Context, phone string) (bool, error)
	Consume(ctx context.Context, phone string) error
}

// UserService handles registration, lookup and login
type UserService struct {
	accounts   AccountStore
	verifier   PhoneVerifier
	tokens     *TokenService
	rules      utils.PhoneRules
	bcryptCost int
	now        func() time.Time
	logger     *logging.SafeLogger
}

// NewUserService creates a new user service instance
func NewUserService(accounts AccountStore, verifier PhoneVerifier, tokens *TokenService, rules utils.PhoneRules, bcryptCost int, logger *logging.SafeLogger) *UserService {
	return &UserService{
		accounts:   accounts,
		verifier:   verifier,
		tokens:     tokens,
		rules:      rules,
		bcryptCost: bcryptCost,
		now:        time.Now,
		logger:     logger.With(zap.String("component", "users")),
	}
}

// CreateUser registers an account for a verified phone and consumes the
// verification afterwards.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	parsed, err := s.rules.Validate(req.Phone)
	if err != nil {
		observability.AccountsCreated.WithLabelValues("invalid_input").Inc()
		return nil, err
	}
	phone := parsed.Prefix + parsed.National
	logger := s.logger.With(zap.String("phone", observability.MaskPhone(phone)))

	verified, err := s.verifier.IsVerified(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone verification: %w", err)
	}
	if !verified {
		observability.AccountsCreated.WithLabelValues("forbidden").Inc()
		return nil, models.ErrForbidden
	}

	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	plan := strings.TrimSpace(req.Plan)
	if plan == "" {
		plan = models.DefaultPlan
	}
	transactions := req.Transactions
	if transactions == nil {
		transactions = []string{}
	}

	user := &models.User{
		Phone:        phone,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		Balance:      req.Balance,
		Plan:         plan,
		Transactions: transactions,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.accounts.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			observability.AccountsCreated.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}

	if err := s.verifier.Consume(ctx, phone); err != nil {
		// The account exists; a leftover verified record only lets the
		// same phone hit the registration conflict again.
		logger.Error("failed to consume phone verification", zap.Error(err))
	}

	observability.AccountsCreated.WithLabelValues("created").Inc()
	logger.Info("account created", zap.String("user_id", user.ID.Hex()))
	return user, nil
}

// Exists reports whether an account is registered for phone
func (s *UserService) Exists(ctx context.Context, phone string) (bool, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return false, fmt.Errorf("%w: phone is required", models.ErrInvalidInput)
	}
	return s.accounts.Exists(ctx, phone)
}

// GetByPhone returns the account for phone
func (s *UserService) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.accounts.FindByPhone(ctx, strings.TrimSpace(phone))
}

// Login checks credentials and issues a session token
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	phone := strings.TrimSpace(req.Phone)
	user, err := s.accounts.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("login rejected", zap.String("phone", observability.MaskPhone(phone)))
		return nil, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		UserID:  user.ID.Hex(),
		Name:    user.Name,
		Balance: user.Balance,
		Token:   token,
	}, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*email))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
