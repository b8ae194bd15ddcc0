package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lcmc/crm-manager/pkg/model"
)

// GetRunMode parses the "mode" query parameter. A missing mode is model.Live.
func GetRunMode(c *gin.Context) (model.RunMode, error) {
	return model.ParseRunMode(c.Query("mode"))
}
