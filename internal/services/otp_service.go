package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/copper-mobile/app-api/internal/logging"
	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/copper-mobile/app-api/internal/utils"
	"go.uber.org/zap"
)

// Acknowledgements returned by the OTP operations
const (
	MessageCodeSent      = "Código de verificación enviado"
	MessagePhoneVerified = "Número verificado correctamente"
)

// AccountLookup reports whether an account is registered for a phone
type AccountLookup interface {
	Exists(ctx context.Context, phone string) (bool, error)
}

// OTPConfig holds the verification policy
type OTPConfig struct {
	Rules       utils.PhoneRules
	CodeLength  int
	CodeTTL     time.Duration
	VerifiedTTL time.Duration
}

// OTPService owns the lifecycle of phone verification codes and the
// verified-phone gate account creation depends on.
type OTPService struct {
	store      OTPStore
	accounts   AccountLookup
	dispatcher SMSDispatcher
	limiter    *RateLimiter
	cfg        OTPConfig
	now        func() time.Time
	generate   func(length int) (string, error)
	logger     *logging.SafeLogger
}

// NewOTPService creates a new OTP service. limiter may be nil.
func NewOTPService(store OTPStore, accounts AccountLookup, dispatcher SMSDispatcher, limiter *RateLimiter, cfg OTPConfig, logger *logging.SafeLogger) *OTPService {
	return &OTPService{
		store:      store,
		accounts:   accounts,
		dispatcher: dispatcher,
		limiter:    limiter,
		cfg:        cfg,
		now:        time.Now,
		generate:   utils.GenerateVerificationCode,
		logger:     logger.With(zap.String("component", "otp")),
	}
}

// SendCode issues a fresh code for phone, replacing any earlier record, and
// dispatches it. On dispatch failure the pending record is kept.
func (s *OTPService) SendCode(ctx context.Context, phone string) (string, error) {
	ctx, span := utils.TraceBusinessLogic(ctx, "send_verification_code")
	defer span.End()

	parsed, err := s.cfg.Rules.Validate(phone)
	if err != nil {
		observability.OTPCodesSent.WithLabelValues("invalid_input", "").Inc()
		utils.AddSpanAttribute(span, "otp.result", models.KindInvalidInput)
		return "", err
	}
	phone = parsed.Prefix + parsed.National
	region := utils.PhoneRegion(phone)
	logger := s.logger.With(zap.String("phone", observability.MaskPhone(phone)), zap.String("region", region))

	exists, err := s.accounts.Exists(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("failed to check account: %w", err)
	}
	if exists {
		observability.OTPCodesSent.WithLabelValues("conflict", region).Inc()
		return "", fmt.Errorf("%w: log in instead", models.ErrConflict)
	}

	if !s.limiter.Allow(ctx, "sms_dispatch") {
		observability.OTPCodesSent.WithLabelValues("rate_limited", region).Inc()
		return "", fmt.Errorf("%w: try again in a moment", models.ErrRateLimited)
	}

	s.sweep(ctx)

	code, err := s.generate(s.cfg.CodeLength)
	if err != nil {
		return "", err
	}

	record := models.NewPendingOTP(phone, code, s.now(), s.cfg.CodeTTL)
	if err := s.store.SavePending(ctx, record); err != nil {
		return "", err
	}

	if err := s.dispatcher.SendCode(ctx, phone, code); err != nil {
		observability.OTPCodesSent.WithLabelValues("dispatch_failure", region).Inc()
		logger.Error("verification code dispatch failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", models.ErrDispatchFailure, err)
	}

	observability.OTPCodesSent.WithLabelValues("sent", region).Inc()
	logger.Info("verification code issued", zap.Time("expires_at", *record.ExpiresAt))
	return MessageCodeSent, nil
}

// ValidateCode checks code against the pending record for phone and, on a
// match, replaces it with the verified record. Expired pending records are
// swept once the record for phone has been read.
func (s *OTPService) ValidateCode(ctx context.Context, phone, code string) (string, error) {
	ctx, span := utils.TraceBusinessLogic(ctx, "validate_verification_code")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		observability.OTPValidations.WithLabelValues("invalid_input").Inc()
		return "", fmt.Errorf("%w: code is required", models.ErrInvalidInput)
	}
	parsed, err := s.cfg.Rules.Validate(phone)
	if err != nil {
		observability.OTPValidations.WithLabelValues("invalid_input").Inc()
		return "", err
	}
	phone = parsed.Prefix + parsed.National
	logger := s.logger.With(zap.String("phone", observability.MaskPhone(phone)))

	now := s.now()
	record, err := s.store.Find(ctx, phone)
	if err != nil {
		return "", err
	}
	// The sweep shares now with the expiry check below, so it only removes
	// this phone's record when that record is reported as expired anyway.
	s.sweepAt(ctx, now)

	if !record.IsPending() {
		observability.OTPValidations.WithLabelValues("not_found").Inc()
		return "", fmt.Errorf("%w: no pending verification for this number", models.ErrNotFound)
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		observability.OTPValidations.WithLabelValues("unauthorized").Inc()
		logger.Warn("verification code mismatch")
		return "", fmt.Errorf("%w: incorrect verification code", models.ErrUnauthorized)
	}

	if record.IsExpiredAt(now) {
		if err := s.store.DeletePending(ctx, phone, record.Code); err != nil {
			logger.Error("failed to delete expired verification record", zap.Error(err))
		}
		observability.OTPValidations.WithLabelValues("expired").Inc()
		return "", fmt.Errorf("%w: request a new code", models.ErrExpired)
	}

	ok, err := s.store.MarkVerified(ctx, phone, record.Code, now)
	if err != nil {
		return "", err
	}
	if !ok {
		// A newer code replaced this one between the read and the write.
		observability.OTPValidations.WithLabelValues("unauthorized").Inc()
		return "", fmt.Errorf("%w: verification code was superseded", models.ErrUnauthorized)
	}

	observability.OTPValidations.WithLabelValues("verified").Inc()
	logger.Info("phone number verified")
	return MessagePhoneVerified, nil
}

// IsVerified reports whether phone holds a verified record. When VerifiedTTL
// is set, verifications older than it no longer count.
func (s *OTPService) IsVerified(ctx context.Context, phone string) (bool, error) {
	record, err := s.store.Find(ctx, strings.TrimSpace(phone))
	if err != nil {
		return false, err
	}
	if record == nil || !record.Verified || record.VerifiedAt == nil {
		return false, nil
	}
	if s.cfg.VerifiedTTL > 0 && s.now().Sub(*record.VerifiedAt) > s.cfg.VerifiedTTL {
		return false, nil
	}
	return true, nil
}

// Consume deletes every verification record for phone, closing the window
// after an account was created.
func (s *OTPService) Consume(ctx context.Context, phone string) error {
	deleted, err := s.store.Delete(ctx, strings.TrimSpace(phone))
	if err != nil {
		return err
	}
	s.logger.Debug("verification records consumed",
		zap.String("phone", observability.MaskPhone(phone)),
		zap.Int64("deleted", deleted))
	return nil
}

// SweepExpired deletes every expired pending record and returns the count
func (s *OTPService) SweepExpired(ctx context.Context) (int64, error) {
	return s.sweepExpiredAt(ctx, s.now())
}

func (s *OTPService) sweepExpiredAt(ctx context.Context, now time.Time) (int64, error) {
	deleted, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		observability.OTPSweptRecords.Add(float64(deleted))
	}
	return deleted, nil
}

// sweep is the best-effort cleanup run by SendCode
func (s *OTPService) sweep(ctx context.Context) {
	s.sweepAt(ctx, s.now())
}

// sweepAt is a best-effort sweep; failures are only logged
func (s *OTPService) sweepAt(ctx context.Context, now time.Time) {
	deleted, err := s.sweepExpiredAt(ctx, now)
	if err != nil {
		s.logger.Warn("expired verification sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Debug("expired verification records swept", zap.Int64("deleted", deleted))
	}
}
