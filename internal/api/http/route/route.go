package route

import (
	"crypto/ecdsa"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"content-tracker/internal/api/http/handler"
	"content-tracker/internal/api/http/middleware"
	"content-tracker/internal/config"
	"content-tracker/internal/model"
)

// SetupRouter builds the ops surface. Ops routes are only mounted when publicKey is set.
func SetupRouter(
	log *zap.Logger,
	cfg *config.Config,
	publicKey *ecdsa.PublicKey,
	healthHdl HealthHandler,
	opsHdl OpsHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	router := gin.New()
	router.Use(gin.Recovery())

	// middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestTimeout(cfg.HTTPServer.Timeout.Request))
	router.Use(middleware.CORS(cfg.HTTPServer.CORS))

	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.NoMethod)
	router.NoRoute(handler.NoRoute)

	basePath := router.Group(cfg.HTTPServer.BasePath)

	docsPath := basePath.Group("/docs")
	RegisterDock(docsPath)

	healthPath := basePath.Group("/health")
	RegisterHealth(healthPath, healthHdl)

	if publicKey != nil {
		opsPath := basePath.Group("/ops",
			middleware.JWTAuth(publicKey),
			middleware.RequireRoles(log, model.RoleOperator),
		)
		RegisterOps(opsPath, opsHdl)
	} else {
		log.Warn("No public key configured, ops routes are disabled")
	}

	return router
}
