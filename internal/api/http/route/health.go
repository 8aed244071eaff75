package route

import (
	"github.com/gin-gonic/gin"
)

type HealthHandler interface {
	Ping(c *gin.Context)
	Ready(c *gin.Context)
}

func RegisterHealth(g *gin.RouterGroup, h HealthHandler) {
	g.GET("", h.Ping)
	g.GET("/ready", h.Ready)
}
