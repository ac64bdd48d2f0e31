package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/ports"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// JWTTokenizer reads HS256 session tokens issued by the auth service
type JWTTokenizer struct {
	secret []byte
	now    func() time.Time
}

// NewJWTTokenizer creates a new JWT session reader. With an empty secret the
// signature is not checked; the token is only decoded.
func NewJWTTokenizer(secret string) ports.SessionReader {
	return &JWTTokenizer{secret: []byte(secret), now: time.Now}
}

// TokenToSession converts a session token to a Session
func (j *JWTTokenizer) TokenToSession(tokenStr string) (*core.Session, error) {
	claims := &SessionClaims{}

	if len(j.secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if claims.ExpiresAt != nil && !j.now().Before(claims.ExpiresAt.Time) {
			return nil, ErrTokenExpired
		}
	} else {
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return j.secret, nil
		}, jwt.WithTimeFunc(j.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, ErrTokenExpired
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if !token.Valid {
			return nil, ErrInvalidToken
		}
	}

	address, err := core.ValidateAddress(claims.address())
	if err != nil {
		return nil, fmt.Errorf("%w: no valid address claim", ErrInvalidToken)
	}

	session := &core.Session{
		Address: address,
		Token:   tokenStr,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	return session, nil
}
