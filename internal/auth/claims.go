package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// Tokens identify a calling client (a dialer, CRM job or operator tool), not an end user.
type Claims struct {
	jwt.RegisteredClaims

	ClientID string `json:"client_id"`
	Role     string `json:"role"`
}
