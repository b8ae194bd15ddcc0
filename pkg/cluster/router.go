package cluster

import (
	"github.com/gin-gonic/gin"
)

func Routes(r gin.IRouter, handler Handler) {
	r.GET("/graph", handler.Graph)
	r.GET("/start-order", handler.StartOrder)
	r.GET("/services/:id", handler.Find)
	r.POST("/services", handler.AddService)
	r.DELETE("/services/:id", handler.RemoveService)
	r.POST("/placeholders", handler.AddPlaceholder)
	r.POST("/mutations", handler.Mutate)
}
