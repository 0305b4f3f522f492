package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPlan is assigned to accounts created without a plan
const DefaultPlan = "sin_plan"

// User represents a customer account
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"user_id"`
	Phone        string             `bson:"phone" json:"phone"`
	PasswordHash string             `bson:"password" json:"-"`
	Name         string             `bson:"name" json:"name"`
	Email        *string            `bson:"email,omitempty" json:"email,omitempty"`
	Balance      float64            `bson:"balance" json:"balance"`
	Plan         string             `bson:"plan" json:"plan"`
	Transactions []string           `bson:"transactions" json:"transactions"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// CreateUserRequest is the body of POST /api/users/
type CreateUserRequest struct {
	Name         string   `json:"name" binding:"required,max=120" example:"Juan Pérez"`
	Phone        string   `json:"phone" binding:"required" example:"+5215512345678"`
	Password     string   `json:"password" binding:"required,min=6,max=72"`
	Email        *string  `json:"email,omitempty" binding:"omitempty,email" example:"juan@example.com"`
	Balance      float64  `json:"balance" binding:"gte=0"`
	Plan         string   `json:"plan,omitempty" example:"sin_plan"`
	Transactions []string `json:"transactions,omitempty"`
}

// CreateUserResponse is returned after a successful registration
type CreateUserResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// ExistsResponse answers GET /api/users/existe
type ExistsResponse struct {
	Registrado bool `json:"registrado"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required" example:"+5215512345678"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	UserID  string  `json:"user_id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
	Token   string  `json:"token"`
}

// PhoneValidationRequest is the body of POST /api/validate/phone
type PhoneValidationRequest struct {
	Phone string `json:"phone" binding:"required" example:"+5215512345678"`
}

// PhoneValidationResponse describes how a number is interpreted
type PhoneValidationResponse struct {
	Valid          bool   `json:"valid"`
	Phone          string `json:"phone"`
	CountryPrefix  string `json:"country_prefix,omitempty"`
	NationalNumber string `json:"national_number,omitempty"`
	Region         string `json:"region,omitempty"`
	E164           string `json:"e164,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// HealthResponse reports dependency status and background worker stats
type HealthResponse struct {
	Status    string                            `json:"status"`
	Timestamp time.Time                         `json:"timestamp"`
	Services  map[string]string                 `json:"services"`
	Workers   map[string]map[string]interface{} `json:"workers,omitempty"`
}
