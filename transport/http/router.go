package http

import (
	"github.com/gin-gonic/gin"
	"github.com/layer-3/signet/ports"
	"go.uber.org/zap"
)

// SetupRouter sets up the Gin router
func SetupRouter(handlers *Handlers, sessions ports.SessionReader, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	router.GET("/health", handlers.Health)

	// Wallet routes
	wallet := router.Group("/wallet")
	{
		wallet.POST("/mnemonic", handlers.Mnemonic)
		wallet.POST("/derive", handlers.Derive)
		wallet.POST("/backup", handlers.Backup)
		wallet.POST("/restore", handlers.Restore)
	}

	router.POST("/auth/sign", handlers.SignChallenge)
	router.POST("/signature/recover", handlers.Recover)

	// Session-bound routes
	intent := router.Group("/intent")
	intent.Use(SessionMiddleware(sessions))
	{
		intent.POST("/sign", handlers.SignIntent)
	}

	return router
}
