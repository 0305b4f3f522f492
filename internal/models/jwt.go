package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the claims carried by session tokens issued at login.
// Subject holds the user id.
type JWTClaims struct {
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
