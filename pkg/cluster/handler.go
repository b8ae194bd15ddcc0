package cluster

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lcmc/crm-manager/internal/handler"
	"github.com/lcmc/crm-manager/pkg/constraint"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/lcmc/crm-manager/pkg/reconcile"
)

func NewHandler(session Service) Handler {
	return Handler{session}
}

type Service interface {
	Mutate(ctx context.Context, m model.Mutation, mode model.RunMode) (Ack, error)
	Query(ctx context.Context, id string, mode model.RunMode) (reconcile.Result, error)
	Snapshot() constraint.Snapshot
	StartOrder() ([]string, error)
	AddService(ctx context.Context, request AddServiceRequest) (*model.ServiceNode, error)
	AddPlaceholder(ctx context.Context, id string) (*model.ServiceNode, error)
	RemoveService(ctx context.Context, id string, mode model.RunMode) (Ack, error)
}

type Handler struct {
	session Service
}

// Graph returns the dependency graph
func (h Handler) Graph(c *gin.Context) {
	// swagger:route GET /graph graph
	//
	// Find the dependency graph
	//
	// Responses:
	//   200: GraphView
	c.JSON(http.StatusOK, newGraphView(h.session.Snapshot()))
}

// StartOrder returns an order in which the services can be started
func (h Handler) StartOrder(c *gin.Context) {
	// swagger:route GET /start-order startOrder
	//
	// Find the start order
	//
	// Responses:
	//   200: []string
	order, err := h.session.StartOrder()
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Find reconciles a service with the cluster status
func (h Handler) Find(c *gin.Context) {
	// swagger:route GET /services/{id} findService
	//
	// Find service
	//
	// Find where a service runs and which actions are available
	//
	// Responses:
	//   200: QueryResult
	//   400: Error
	//   404: Error
	mode, err := handler.GetRunMode(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.session.Query(c.Request.Context(), c.Param("id"), mode)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AddService adds a service
func (h Handler) AddService(c *gin.Context) {
	// swagger:route POST /services addService
	//
	// Add service
	//
	// Responses:
	//   201: ServiceNode
	//   400: Error
	//   404: Error
	//   409: Error
	var request AddServiceRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	node, err := h.session.AddService(c.Request.Context(), request)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, node)
}

type AddPlaceholderRequest struct {
	ID string `json:"id"`
}

// AddPlaceholder adds a placeholder standing for a resource set
func (h Handler) AddPlaceholder(c *gin.Context) {
	// swagger:route POST /placeholders addPlaceholder
	//
	// Add placeholder
	//
	// Responses:
	//   201: ServiceNode
	//   400: Error
	//   409: Error
	var request AddPlaceholderRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	node, err := h.session.AddPlaceholder(c.Request.Context(), request.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, node)
}

// RemoveService removes a service
func (h Handler) RemoveService(c *gin.Context) {
	// swagger:route DELETE /services/{id} removeService
	//
	// Remove service
	//
	// The service is removed from the cluster. It stays in the graph, flagged as removed, until the
	// cluster status no longer reports it.
	//
	// Responses:
	//   202: Ack
	//   400: Error
	//   404: Error
	//   503: Error
	mode, err := handler.GetRunMode(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ack, err := h.session.RemoveService(c.Request.Context(), c.Param("id"), mode)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, ack)
}

// Mutate changes the cluster configuration
func (h Handler) Mutate(c *gin.Context) {
	// swagger:route POST /mutations mutate
	//
	// Mutate
	//
	// Apply a mutation to the live cluster, or simulate it with mode=test
	//
	// Responses:
	//   200: Ack
	//   400: Error
	//   404: Error
	//   503: Error
	mode, err := handler.GetRunMode(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var mutation model.Mutation
	if err := handler.DataBinder(c, &mutation); err != nil {
		_ = c.Error(err)
		return
	}

	ack, err := h.session.Mutate(c.Request.Context(), mutation, mode)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ack)
}
