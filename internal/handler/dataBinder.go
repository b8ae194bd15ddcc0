package handler

import (
	"github.com/lcmc/crm-manager/internal/errdef"

	"github.com/gin-gonic/gin"
)

func DataBinder(c *gin.Context, req any) error {
	if c.ContentType() != "application/json" {
		return errdef.NewBadRequest("%s only accepts content of type application/json", c.FullPath())
	}

	if err := c.ShouldBindJSON(req); err != nil {
		return errdef.NewBadRequest("error binding data: %v", err)
	}

	return nil
}
