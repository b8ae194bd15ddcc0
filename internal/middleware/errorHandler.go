package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lcmc/crm-manager/internal/errdef"
)

// ErrorHandler maps the last error added to the Gin context to an HTTP status.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil {
			return
		}
		if c.Writer.Written() {
			return
		}
		if c.Writer.Status() != http.StatusOK {
			c.String(c.Writer.Status(), err.Error())
			return
		}

		// nolint:gocritic
		if errdef.IsBadRequest(err) || errdef.IsInvalidEndpoint(err) {
			c.String(http.StatusBadRequest, err.Error())
		} else if errdef.IsNotFound(err) {
			c.String(http.StatusNotFound, err.Error())
		} else if errdef.IsDuplicated(err) {
			c.String(http.StatusConflict, err.Error())
		} else if errdef.IsBackendUnavailable(err) || errdef.IsPoll(err) {
			c.String(http.StatusServiceUnavailable, err.Error())
		} else {
			id, _ := GetCorrelationID(c.Request.Context())
			err := fmt.Errorf("something went wrong. We'll look into it if you send us the id %q :)", id)
			c.String(http.StatusInternalServerError, err.Error())
		}
	}
}
