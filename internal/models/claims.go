package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the signed payload of an access token: the minimum
// needed for downstream authorization without a database round trip.
type AccessClaims struct {
	UserID   int    `json:"id"`
	Username string `json:"username"`
	Branch   string `json:"branch"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
