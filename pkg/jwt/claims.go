package jwt

import "github.com/golang-jwt/jwt/v5"

// Claims are the token claims for event access.
type Claims struct {
	jwt.RegisteredClaims
	EventID string `json:"event_id"`
	Role    string `json:"role"`
}

// Role identifies what a token holder may do within an event.
type Role string

const (
	RoleCreator Role = "creator"
	RoleGuest   Role = "guest"
)
