package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit actions
const (
	AuditActionSendCode     = "SEND_CODE"
	AuditActionValidateCode = "VALIDATE_CODE"
	AuditActionCreate       = "CREATE"
	AuditActionLogin        = "LOGIN"
)

// Audit resources
const (
	AuditResourcePhoneVerification = "phone_verification"
	AuditResourceUser              = "user"
)

// AuditLog represents an audit log entry. ResourceID holds a masked phone.
type AuditLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action     string             `bson:"action" json:"action"`
	Resource   string             `bson:"resource" json:"resource"`
	ResourceID string             `bson:"resource_id" json:"resource_id"`
	Outcome    string             `bson:"outcome" json:"outcome"`
	RequestID  string             `bson:"request_id,omitempty" json:"request_id,omitempty"`
	IPAddress  string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent  string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Metadata   map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}
