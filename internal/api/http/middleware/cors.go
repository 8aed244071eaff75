package middleware

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"content-tracker/internal/config"
)

func CORS(cfg config.CORS) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	corsConfig := cors.Config{
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
		AllowWebSockets:  cfg.AllowWebSockets,
		AllowFiles:       cfg.AllowFiles,
	}

	if cfg.AllowAllOrigins {
		corsConfig.AllowOriginFunc = func(string) bool {
			return true
		}
	} else {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	}

	return cors.New(corsConfig)
}

// OriginChecker mirrors the CORS origin policy for WebSocket upgrades.
func OriginChecker(cfg config.CORS) func(r *http.Request) bool {
	if !cfg.Enabled || cfg.AllowAllOrigins {
		return func(*http.Request) bool { return true }
	}

	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		allowed[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		_, ok := allowed[origin]

		return ok
	}
}
