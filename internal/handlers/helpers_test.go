package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/copper-mobile/app-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testPhone = "+5215512345678"

func init() {
	gin.SetMode(gin.TestMode)
}

// performJSON sends a request with an optional JSON body through the router.
func performJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

type fakeOTP struct {
	sendErr     error
	validateErr error
	sentTo      string
	validated   [2]string
}

func (f *fakeOTP) SendCode(_ context.Context, phone string) (string, error) {
	f.sentTo = phone
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "Código de verificación enviado", nil
}

func (f *fakeOTP) ValidateCode(_ context.Context, phone, code string) (string, error) {
	f.validated = [2]string{phone, code}
	if f.validateErr != nil {
		return "", f.validateErr
	}
	return "Número verificado correctamente", nil
}

type fakeAccounts struct {
	createErr error
	created   *models.CreateUserRequest
	user      *models.User
	exists    map[string]bool
	existsErr error
	login     *models.LoginResponse
	loginErr  error
}

func (f *fakeAccounts) CreateUser(_ context.Context, req models.CreateUserRequest) (*models.User, error) {
	f.created = &req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.user, nil
}

func (f *fakeAccounts) Exists(_ context.Context, phone string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.exists[phone], nil
}

func (f *fakeAccounts) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	if f.user == nil || f.user.Phone != phone {
		return nil, models.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeAccounts) Login(_ context.Context, _ models.LoginRequest) (*models.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.login, nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *recordingAudit) Log(entry models.AuditLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *recordingAudit) all() []models.AuditLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.AuditLog(nil), a.entries...)
}

type memoryHealthCache struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	gets   int
}

func newMemoryHealthCache() *memoryHealthCache {
	return &memoryHealthCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryHealthCache) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	value, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *memoryHealthCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	case string:
		m.values[key] = v
	}
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}
