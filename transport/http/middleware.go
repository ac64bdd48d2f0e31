package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/ports"
	"go.uber.org/zap"
)

const (
	ctxSession     = "session"
	ctxUserAddress = "userAddress"
)

// SessionMiddleware creates middleware that turns a Bearer session token
// into the authenticated address
func SessionMiddleware(sessions ports.SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		session, err := sessions.TokenToSession(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
			return
		}

		c.Set(ctxSession, session)
		c.Set(ctxUserAddress, session.Address)

		c.Next()
	}
}

// authenticatedAddress returns the address set by SessionMiddleware
func authenticatedAddress(c *gin.Context) (string, error) {
	address := c.GetString(ctxUserAddress)
	if address == "" {
		return "", core.ErrNotAuthenticated
	}
	return address, nil
}

// RequestLogger logs one line per request. Bodies are never logged.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
