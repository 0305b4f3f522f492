package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/copper-mobile/app-api/internal/logging"
	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/copper-mobile/app-api/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	smsTokenCacheKey   = "sms:token"
	defaultSMSTimeout  = 15 * time.Second
	tokenExpiryLeeway  = time.Minute
	defaultTokenExpiry = 10 * time.Minute
)

// SMSDispatcher delivers a verification code to a phone number
type SMSDispatcher interface {
	SendCode(ctx context.Context, phone, code string) error
}

// TokenCache is the subset of the Redis client used to cache gateway tokens
type TokenCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SMSGatewayConfig configures SMSGatewayDispatcher
type SMSGatewayConfig struct {
	BaseURL         string
	Username        string
	Password        string
	Sender          string
	MessageTemplate string
}

// SMSGatewayDispatcher sends codes through an HTTP SMS gateway. The gateway
// session token is cached in Redis so every instance shares one login.
type SMSGatewayDispatcher struct {
	cfg        SMSGatewayConfig
	cache      TokenCache
	httpClient *http.Client
	logger     *logging.SafeLogger
}

type smsAuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type smsMessageRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

// NewSMSGatewayDispatcher creates a dispatcher for the configured gateway
func NewSMSGatewayDispatcher(cfg SMSGatewayConfig, cache TokenCache, logger *logging.SafeLogger) *SMSGatewayDispatcher {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MessageTemplate == "" {
		cfg.MessageTemplate = "%s"
	}
	return &SMSGatewayDispatcher{
		cfg:        cfg,
		cache:      cache,
		httpClient: &http.Client{Timeout: defaultSMSTimeout},
		logger:     logger.With(zap.String("component", "sms_gateway")),
	}
}

// SendCode sends the code to phone. The code itself is never logged.
func (d *SMSGatewayDispatcher) SendCode(ctx context.Context, phone, code string) error {
	ctx, span := utils.TraceExternalService(ctx, "sms_gateway", "send_code")
	defer span.End()

	logger := d.logger.With(zap.String("phone", observability.MaskPhone(phone)))

	if d.cfg.BaseURL == "" {
		return fmt.Errorf("sms gateway base URL not configured")
	}

	token, err := d.authToken(ctx)
	if err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"sms.stage": "auth"})
		logger.Error("failed to obtain sms gateway token", zap.Error(err))
		return err
	}

	body, err := json.Marshal(smsMessageRequest{
		To:   phone,
		From: d.cfg.Sender,
		Text: fmt.Sprintf(d.cfg.MessageTemplate, code),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"sms.stage": "send"})
		logger.Error("failed to send sms request", zap.Error(err))
		return fmt.Errorf("failed to send sms request: %w", err)
	}
	defer resp.Body.Close()

	utils.AddSpanAttribute(span, "sms.status_code", resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		// Stale token; the next attempt logs in again.
		if err := d.cache.Del(ctx, smsTokenCacheKey).Err(); err != nil {
			logger.Warn("failed to drop cached sms token", zap.Error(err))
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("sms gateway rejected message: status=%d body=%s", resp.StatusCode, maskedGatewayBody(b))
		utils.RecordErrorInSpan(span, err, nil)
		logger.Error("sms gateway rejected message", zap.Int("status", resp.StatusCode))
		return err
	}

	logger.Info("verification code sent via sms gateway")
	return nil
}

// maskedGatewayBody renders an error body for logs. Gateways may echo the
// recipient and message text, so JSON bodies are masked and anything else is
// reduced to its size.
func maskedGatewayBody(body []byte) string {
	if len(body) == 0 {
		return "<empty>"
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Sprintf("<%d bytes>", len(body))
	}
	masked, err := json.Marshal(observability.MaskSensitiveData(fields))
	if err != nil {
		return fmt.Sprintf("<%d bytes>", len(body))
	}
	return string(masked)
}

// authToken returns a gateway token, using Redis for caching
func (d *SMSGatewayDispatcher) authToken(ctx context.Context) (string, error) {
	token, err := d.cache.Get(ctx, smsTokenCacheKey).Result()
	if err == nil && token != "" {
		observability.CacheHits.WithLabelValues("sms_token").Inc()
		return token, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		d.logger.Warn("sms token cache unavailable", zap.Error(err))
	}

	body, err := json.Marshal(map[string]string{
		"username": d.cfg.Username,
		"password": d.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth request failed with status: %d", resp.StatusCode)
	}

	var auth smsAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	if auth.Token == "" {
		return "", fmt.Errorf("auth response carried no token")
	}

	ttl := defaultTokenExpiry
	if auth.ExpiresIn > 0 {
		ttl = time.Duration(auth.ExpiresIn) * time.Second
	}
	ttl -= tokenExpiryLeeway
	if ttl > 0 {
		if err := d.cache.Set(ctx, smsTokenCacheKey, auth.Token, ttl).Err(); err != nil {
			d.logger.Warn("failed to cache sms token", zap.Error(err))
		}
	}

	return auth.Token, nil
}

// LogDispatcher only logs dispatches. Used when SMS delivery is disabled.
type LogDispatcher struct {
	logger *logging.SafeLogger
}

// NewLogDispatcher creates a dispatcher that logs instead of sending
func NewLogDispatcher(logger *logging.SafeLogger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendCode(ctx context.Context, phone, code string) error {
	d.logger.Info("sms delivery disabled, skipping verification code dispatch",
		zap.String("phone", observability.MaskPhone(phone)))
	return nil
}
