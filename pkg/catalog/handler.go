package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/model"
)

func NewHandler(catalog *Catalog) Handler {
	return Handler{
		catalog,
	}
}

type Handler struct {
	catalog *Catalog
}

// Classes lists the resource agent classes
func (h Handler) Classes(c *gin.Context) {
	// swagger:route GET /classes classes
	//
	// Find all resource agent classes
	//
	// Responses:
	//   200: []string
	c.JSON(http.StatusOK, h.catalog.ListClasses())
}

// Agents lists the resource agents of a class
func (h Handler) Agents(c *gin.Context) {
	// swagger:route GET /classes/{class}/agents agents
	//
	// Find all resource agents of a class
	//
	// Responses:
	//   200: []ResourceAgent
	//   400: Error
	//   404: Error
	class := c.Param("class")
	if class == "" {
		_ = c.Error(errdef.NewBadRequest("class missing"))
		return
	}

	agents, err := h.catalog.AgentsInClass(class)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if agents == nil {
		agents = []*model.ResourceAgent{}
	}
	c.JSON(http.StatusOK, agents)
}
