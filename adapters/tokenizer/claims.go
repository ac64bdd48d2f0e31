package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the claims of a verifier-issued session token. Address
// falls back to the subject when absent.
type SessionClaims struct {
	jwt.RegisteredClaims
	Address string `json:"address"`
}

func (c *SessionClaims) address() string {
	if c.Address != "" {
		return c.Address
	}
	return c.Subject
}
