package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/copper-mobile/app-api/internal/logging"
	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPhone = "+5215512345678"

var testOTPConfig = OTPConfig{
	Rules:      utils.PhoneRules{Prefixes: []string{"+52", "+1", "+57"}, MinDigits: 7},
	CodeLength: 6,
	CodeTTL:    2 * time.Minute,
}

type otpFixture struct {
	svc        *OTPService
	store      *memoryOTPStore
	accounts   *memoryAccountStore
	dispatcher *recordingDispatcher
	clock      *fakeClock
}

func newOTPFixture(t *testing.T, registered ...string) *otpFixture {
	t.Helper()
	f := &otpFixture{
		store:      newMemoryOTPStore(),
		accounts:   newMemoryAccountStore(registered...),
		dispatcher: &recordingDispatcher{},
		clock:      newFakeClock(),
	}
	f.svc = NewOTPService(f.store, f.accounts, f.dispatcher, nil, testOTPConfig, logging.Logger)
	f.svc.now = f.clock.Now
	return f
}

func TestOTPService_SendCode_InvalidPhone(t *testing.T) {
	phones := []string{"+9999999999", "+4915112345678", "5215512345678", "", "+52123"}

	for _, phone := range phones {
		t.Run(phone, func(t *testing.T) {
			f := newOTPFixture(t)

			_, err := f.svc.SendCode(context.Background(), phone)

			assert.ErrorIs(t, err, models.ErrInvalidInput)
			assert.Zero(t, f.store.count(), "no record persisted")
			assert.Zero(t, f.dispatcher.count(), "no dispatch attempted")
		})
	}
}

func TestOTPService_SendCode_RegisteredPhone(t *testing.T) {
	f := newOTPFixture(t, testPhone)

	_, err := f.svc.SendCode(context.Background(), testPhone)

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Zero(t, f.store.count())
	assert.Zero(t, f.dispatcher.count())
}

func TestOTPService_SendCode_CreatesPendingRecord(t *testing.T) {
	f := newOTPFixture(t)

	msg, err := f.svc.SendCode(context.Background(), testPhone)
	require.NoError(t, err)
	assert.Equal(t, MessageCodeSent, msg)

	record, ok := f.store.get(testPhone)
	require.True(t, ok)
	assert.Equal(t, 1, f.store.count())
	assert.True(t, record.IsPending())
	assert.Len(t, record.Code, 6)
	assert.Equal(t, f.clock.Now().Add(2*time.Minute), *record.ExpiresAt)
	assert.NotContains(t, msg, record.Code, "code is never echoed")

	assert.Equal(t, record.Code, f.dispatcher.lastCode())
}

func TestOTPService_SendCode_DispatchFailureKeepsRecord(t *testing.T) {
	f := newOTPFixture(t)
	f.dispatcher.err = errors.New("gateway timeout")

	_, err := f.svc.SendCode(context.Background(), testPhone)

	assert.ErrorIs(t, err, models.ErrDispatchFailure)
	record, ok := f.store.get(testPhone)
	require.True(t, ok)
	assert.True(t, record.IsPending())
}

func TestOTPService_SendCode_RateLimited(t *testing.T) {
	f := newOTPFixture(t)
	f.svc.limiter = newTestLimiter(1, time.Hour, f.clock)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)

	_, err = f.svc.SendCode(ctx, "+573001234567")
	assert.ErrorIs(t, err, models.ErrRateLimited)
	_, ok := f.store.get("+573001234567")
	assert.False(t, ok)
	assert.Equal(t, 1, f.dispatcher.count())
}

func TestOTPService_SendCode_StoreAndLookupErrors(t *testing.T) {
	f := newOTPFixture(t)
	f.accounts.existsErr = errors.New("connection reset")

	_, err := f.svc.SendCode(context.Background(), testPhone)
	require.Error(t, err)
	assert.Equal(t, models.KindInternal, models.KindOf(err))
	assert.Zero(t, f.dispatcher.count())
}

func TestOTPService_SendCode_GeneratorFailure(t *testing.T) {
	f := newOTPFixture(t)
	f.svc.generate = func(int) (string, error) { return "", errors.New("entropy exhausted") }

	_, err := f.svc.SendCode(context.Background(), testPhone)
	assert.Error(t, err)
	assert.Zero(t, f.store.count())
}

func TestOTPService_SendCode_SweepsExpiredRecords(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, "+573001234567")
	require.NoError(t, err)

	f.clock.Advance(3 * time.Minute)
	_, err = f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)

	_, stale := f.store.get("+573001234567")
	assert.False(t, stale, "other phone's expired record swept globally")
	assert.Equal(t, 1, f.store.count())
}

func TestOTPService_ValidateCode_CorrectCode(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)

	msg, err := f.svc.ValidateCode(ctx, testPhone, f.dispatcher.lastCode())
	require.NoError(t, err)
	assert.Equal(t, MessagePhoneVerified, msg)

	record, ok := f.store.get(testPhone)
	require.True(t, ok)
	assert.True(t, record.Verified)
	assert.Equal(t, f.clock.Now(), *record.VerifiedAt)
	assert.Empty(t, record.Code)
	assert.Nil(t, record.ExpiresAt)

	verified, err := f.svc.IsVerified(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestOTPService_ValidateCode_WrongCodeIsRetryable(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	code := f.dispatcher.lastCode()
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err = f.svc.ValidateCode(ctx, testPhone, wrong)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	record, ok := f.store.get(testPhone)
	require.True(t, ok)
	assert.True(t, record.IsPending(), "pending record left intact")

	_, err = f.svc.ValidateCode(ctx, testPhone, code)
	assert.NoError(t, err)
}

func TestOTPService_ValidateCode_NoRecord(t *testing.T) {
	f := newOTPFixture(t)

	_, err := f.svc.ValidateCode(context.Background(), testPhone, "123456")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOTPService_ValidateCode_AlreadyVerified(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	code := f.dispatcher.lastCode()
	_, err = f.svc.ValidateCode(ctx, testPhone, code)
	require.NoError(t, err)

	_, err = f.svc.ValidateCode(ctx, testPhone, code)
	assert.ErrorIs(t, err, models.ErrNotFound)

	verified, err := f.svc.IsVerified(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, verified, "verified record unaffected")
}

func TestOTPService_ValidateCode_MissingFields(t *testing.T) {
	f := newOTPFixture(t)

	_, err := f.svc.ValidateCode(context.Background(), "", "123456")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.svc.ValidateCode(context.Background(), testPhone, " ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestOTPService_ValidateCode_MalformedPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
	}{
		{"unknown prefix", "+9999999999"},
		{"non digits", "+52abc"},
		{"too short", "+52123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOTPFixture(t)
			f.store.findErr = errors.New("store must not be reached")

			_, err := f.svc.ValidateCode(context.Background(), tt.phone, "123456")
			assert.ErrorIs(t, err, models.ErrInvalidInput)
			assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
		})
	}
}

func TestOTPService_ValidateCode_CanonicalizesPhone(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)

	_, err = f.svc.ValidateCode(ctx, "  "+testPhone+" ", f.dispatcher.lastCode())
	require.NoError(t, err)

	record, ok := f.store.get(testPhone)
	require.True(t, ok)
	assert.True(t, record.Verified)
}

func TestOTPService_ValidateCode_SweepsOtherExpiredRecords(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, "+573001234567")
	require.NoError(t, err)
	f.clock.Advance(time.Minute + 30*time.Second)

	_, err = f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	code := f.dispatcher.lastCode()
	f.clock.Advance(time.Minute)

	_, err = f.svc.ValidateCode(ctx, testPhone, code)
	require.NoError(t, err)

	_, stale := f.store.get("+573001234567")
	assert.False(t, stale, "other phone's expired record swept")
	record, ok := f.store.get(testPhone)
	require.True(t, ok)
	assert.True(t, record.Verified)
}

func TestOTPService_ValidateCode_SweepKeepsExpiredOutcome(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	f.clock.Advance(3 * time.Minute)

	_, err = f.svc.ValidateCode(ctx, testPhone, f.dispatcher.lastCode())
	assert.ErrorIs(t, err, models.ErrExpired)
}

func TestOTPService_ValidateCode_StoreError(t *testing.T) {
	f := newOTPFixture(t)
	f.store.findErr = errors.New("mongo unavailable")

	_, err := f.svc.ValidateCode(context.Background(), testPhone, "123456")
	require.Error(t, err)
	assert.Equal(t, models.KindInternal, models.KindOf(err))
}

func TestOTPService_RestartInvalidatesPreviousCode(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	first := f.dispatcher.lastCode()

	// Make sure the two codes differ regardless of randomness.
	f.svc.generate = func(int) (string, error) {
		if first == "424242" {
			return "131313", nil
		}
		return "424242", nil
	}
	_, err = f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	second := f.dispatcher.lastCode()
	require.NotEqual(t, first, second)
	assert.Equal(t, 1, f.store.count(), "still one record per phone")

	_, err = f.svc.ValidateCode(ctx, testPhone, first)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = f.svc.ValidateCode(ctx, testPhone, second)
	assert.NoError(t, err)
}

func TestOTPService_RestartAfterVerification(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	_, err = f.svc.ValidateCode(ctx, testPhone, f.dispatcher.lastCode())
	require.NoError(t, err)

	_, err = f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)

	record, ok := f.store.get(testPhone)
	require.True(t, ok)
	assert.True(t, record.IsPending(), "verified record replaced by a pending one")

	verified, err := f.svc.IsVerified(ctx, testPhone)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestOTPService_ValidateCode_Expired(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	code := f.dispatcher.lastCode()

	f.clock.Advance(2*time.Minute + time.Second)

	_, err = f.svc.ValidateCode(ctx, testPhone, code)
	assert.ErrorIs(t, err, models.ErrExpired)
	_, ok := f.store.get(testPhone)
	assert.False(t, ok, "expired record removed")

	_, err = f.svc.ValidateCode(ctx, testPhone, code)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOTPService_ValidateCode_AtExpiryBoundary(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	_, err = f.svc.ValidateCode(ctx, testPhone, f.dispatcher.lastCode())
	assert.NoError(t, err)
}

func TestOTPService_ValidateCode_SupersededBetweenReadAndWrite(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	code := f.dispatcher.lastCode()

	racing := &supersedingStore{memoryOTPStore: f.store, phone: testPhone}
	f.svc.store = racing

	_, err = f.svc.ValidateCode(ctx, testPhone, code)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	record, ok := f.store.get(testPhone)
	require.True(t, ok)
	assert.True(t, record.IsPending())
	assert.Equal(t, "999999", record.Code)
}

// supersedingStore simulates a concurrent SendCode landing between the
// read and the verified write.
type supersedingStore struct {
	*memoryOTPStore
	phone string
}

func (s *supersedingStore) MarkVerified(ctx context.Context, phone, code string, verifiedAt time.Time) (bool, error) {
	now := time.Now()
	_ = s.memoryOTPStore.SavePending(ctx, models.NewPendingOTP(s.phone, "999999", now, time.Minute))
	return s.memoryOTPStore.MarkVerified(ctx, phone, code, verifiedAt)
}

func TestOTPService_IsVerified_TTL(t *testing.T) {
	f := newOTPFixture(t)
	f.svc.cfg.VerifiedTTL = 30 * time.Minute
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	_, err = f.svc.ValidateCode(ctx, testPhone, f.dispatcher.lastCode())
	require.NoError(t, err)

	f.clock.Advance(29 * time.Minute)
	verified, err := f.svc.IsVerified(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, verified)

	f.clock.Advance(2 * time.Minute)
	verified, err = f.svc.IsVerified(ctx, testPhone)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestOTPService_IsVerified_UnboundedByDefault(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	_, err = f.svc.ValidateCode(ctx, testPhone, f.dispatcher.lastCode())
	require.NoError(t, err)

	f.clock.Advance(365 * 24 * time.Hour)
	verified, err := f.svc.IsVerified(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestOTPService_IsVerified_PendingIsNotVerified(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	verified, err := f.svc.IsVerified(ctx, testPhone)
	require.NoError(t, err)
	assert.False(t, verified)

	_, err = f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	verified, err = f.svc.IsVerified(ctx, testPhone)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestOTPService_Consume(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	_, err = f.svc.ValidateCode(ctx, testPhone, f.dispatcher.lastCode())
	require.NoError(t, err)

	require.NoError(t, f.svc.Consume(ctx, testPhone))
	_, ok := f.store.get(testPhone)
	assert.False(t, ok)

	require.NoError(t, f.svc.Consume(ctx, testPhone), "consuming twice is harmless")
}

func TestOTPService_SweepExpired(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendCode(ctx, testPhone)
	require.NoError(t, err)
	_, err = f.svc.ValidateCode(ctx, testPhone, f.dispatcher.lastCode())
	require.NoError(t, err)

	_, err = f.svc.SendCode(ctx, "+573001234567")
	require.NoError(t, err)
	_, err = f.svc.SendCode(ctx, "+12025550123")
	require.NoError(t, err)

	deleted, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted, "nothing expired yet")

	f.clock.Advance(10 * time.Minute)
	deleted, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	record, ok := f.store.get(testPhone)
	require.True(t, ok, "verified records are never swept")
	assert.True(t, record.Verified)
}
