package types

import "github.com/golang-jwt/jwt/v4"

// Claims is the token payload issued by the auth service. Subject holds the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}
