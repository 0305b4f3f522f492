package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/copper-mobile/app-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryOTPStore mirrors MongoOTPStore semantics in memory
type memoryOTPStore struct {
	mu      sync.Mutex
	records map[string]models.OTPRecord
	findErr error
}

func newMemoryOTPStore() *memoryOTPStore {
	return &memoryOTPStore{records: map[string]models.OTPRecord{}}
}

func (s *memoryOTPStore) Find(ctx context.Context, phone string) (*models.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	record, ok := s.records[phone]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *memoryOTPStore) SavePending(ctx context.Context, record *models.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Phone] = *record
	return nil
}

func (s *memoryOTPStore) MarkVerified(ctx context.Context, phone, code string, verifiedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[phone]
	if !ok || record.Verified || record.Code != code {
		return false, nil
	}
	s.records[phone] = *models.NewVerifiedOTP(phone, verifiedAt)
	return true, nil
}

func (s *memoryOTPStore) DeletePending(ctx context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[phone]; ok && record.Code == code {
		delete(s.records, phone)
	}
	return nil
}

func (s *memoryOTPStore) Delete(ctx context.Context, phone string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[phone]; !ok {
		return 0, nil
	}
	delete(s.records, phone)
	return 1, nil
}

func (s *memoryOTPStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for phone, record := range s.records {
		if record.IsExpiredAt(now) {
			delete(s.records, phone)
			deleted++
		}
	}
	return deleted, nil
}

func (s *memoryOTPStore) get(phone string) (models.OTPRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[phone]
	return record, ok
}

func (s *memoryOTPStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// memoryAccountStore is an in-memory AccountStore with a unique phone index
type memoryAccountStore struct {
	mu        sync.Mutex
	users     map[string]models.User
	existsErr error
}

func newMemoryAccountStore(phones ...string) *memoryAccountStore {
	s := &memoryAccountStore{users: map[string]models.User{}}
	for _, p := range phones {
		s.users[p] = models.User{ID: primitive.NewObjectID(), Phone: p}
	}
	return s
}

func (s *memoryAccountStore) Exists(ctx context.Context, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.users[phone]
	return ok, nil
}

func (s *memoryAccountStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Phone]; ok {
		return fmt.Errorf("%w: duplicate phone", models.ErrConflict)
	}
	user.ID = primitive.NewObjectID()
	s.users[user.Phone] = *user
	return nil
}

func (s *memoryAccountStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[phone]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &user, nil
}

// recordingDispatcher remembers every code it was asked to send
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

type sentCode struct {
	phone string
	code  string
}

func (d *recordingDispatcher) SendCode(ctx context.Context, phone, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentCode{phone: phone, code: code})
	return d.err
}

func (d *recordingDispatcher) lastCode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sent) == 0 {
		return ""
	}
	return d.sent[len(d.sent)-1].code
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}
