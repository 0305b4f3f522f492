package models

import "time"

// OTPRecord is the single verification document kept per phone number.
// A pending record carries Code and ExpiresAt; a verified record carries
// Verified and VerifiedAt. The two shapes never mix.
type OTPRecord struct {
	Phone      string     `bson:"phone" json:"phone"`
	Code       string     `bson:"code,omitempty" json:"-"`
	ExpiresAt  *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CreatedAt  *time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	Verified   bool       `bson:"verified,omitempty" json:"verified"`
	VerifiedAt *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
}

// IsPending reports whether the record is awaiting code validation
func (r *OTPRecord) IsPending() bool {
	return r != nil && !r.Verified && r.Code != ""
}

// IsExpiredAt reports whether a pending record is past its validity window
func (r *OTPRecord) IsExpiredAt(now time.Time) bool {
	return r.IsPending() && r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// NewPendingOTP builds a pending record issued at now
func NewPendingOTP(phone, code string, now time.Time, ttl time.Duration) *OTPRecord {
	expiresAt := now.Add(ttl)
	createdAt := now
	return &OTPRecord{
		Phone:     phone,
		Code:      code,
		ExpiresAt: &expiresAt,
		CreatedAt: &createdAt,
	}
}

// NewVerifiedOTP builds the verified record that replaces a pending one
func NewVerifiedOTP(phone string, now time.Time) *OTPRecord {
	verifiedAt := now
	return &OTPRecord{
		Phone:      phone,
		Verified:   true,
		VerifiedAt: &verifiedAt,
	}
}

// SendOTPRequest is the body of POST /api/auth/send-otp
type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required" example:"+5215512345678"`
}

// ValidateOTPRequest is the body of POST /api/auth/validate-otp
type ValidateOTPRequest struct {
	Phone string `json:"phone" binding:"required" example:"+5215512345678"`
	Code  string `json:"code" binding:"required,numeric" example:"123456"`
}

// MessageResponse is a generic acknowledgment
type MessageResponse struct {
	Message string `json:"message"`
}
