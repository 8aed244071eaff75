package route

import (
	"github.com/gin-gonic/gin"
)

type OpsHandler interface {
	Sweep(c *gin.Context)
	LastSweep(c *gin.Context)
	SearchContent(c *gin.Context)
	Stream(c *gin.Context)
}

func RegisterOps(g *gin.RouterGroup, h OpsHandler) {
	g.POST("/sweep", h.Sweep)
	g.GET("/sweep/last", h.LastSweep)
	g.GET("/content/search", h.SearchContent)
	g.GET("/stream", h.Stream)
}
