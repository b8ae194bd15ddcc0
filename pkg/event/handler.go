package event

import (
	"io"
	"log/slog"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

func NewHandler(logger *slog.Logger, broker broker) Handler {
	return Handler{logger, broker}
}

type Handler struct {
	logger *slog.Logger
	broker broker
}

type broker interface {
	Subscribe() string
	Unsubscribe(id string)
	Receive(id string) (Event, bool)
}

func (h Handler) Subscribe(c *gin.Context) {
	// swagger:route GET /events streamSSE
	//
	// Stream events
	//
	// Stream refresh events published after the cluster status changed.
	//
	// responses:
	//   200: Stream
	id := h.broker.Subscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Transfer-Encoding", "chunked")
	c.Writer.Flush()

	ctx := c.Request.Context()
	defer func() {
		h.broker.Unsubscribe(id)
		h.logger.InfoContext(ctx, "Closing client", "subscriber", id)
	}()

	go func() {
		<-ctx.Done()
		h.broker.Unsubscribe(id)
	}()

	c.Stream(func(w io.Writer) bool {
		if event, ok := h.broker.Receive(id); ok {
			c.Render(-1, sse.Event{
				Event: event.Type,
				Data:  event.Message,
			})
			return true
		}
		return false
	})
}
