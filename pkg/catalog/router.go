package catalog

import (
	"github.com/gin-gonic/gin"
)

func Routes(r gin.IRouter, handler Handler) {
	r.GET("/classes", handler.Classes)
	r.GET("/classes/:class/agents", handler.Agents)
}
