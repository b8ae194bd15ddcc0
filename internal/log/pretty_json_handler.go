package log

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

type PrettyJSONHandlerOptions struct {
	slog.HandlerOptions
	PrettyPrint bool
}

// NewPrettyJSONHandler returns a JSON handler. With PrettyPrint every record is indented, which is
// easier to read during development.
func NewPrettyJSONHandler(w io.Writer, opts *PrettyJSONHandlerOptions) slog.Handler {
	if opts == nil {
		opts = &PrettyJSONHandlerOptions{}
	}
	if !opts.PrettyPrint {
		return slog.NewJSONHandler(w, &opts.HandlerOptions)
	}

	buf := &bytes.Buffer{}
	return &prettyHandler{
		handler: slog.NewJSONHandler(buf, &opts.HandlerOptions),
		buf:     buf,
		mu:      &sync.Mutex{},
		writer:  w,
	}
}

// prettyHandler lets a JSON handler write into buf and indents the result. Handlers derived through
// WithAttrs and WithGroup share buf and mu.
type prettyHandler struct {
	handler slog.Handler
	buf     *bytes.Buffer
	mu      *sync.Mutex
	writer  io.Writer
}

func (h *prettyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *prettyHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.handler.Handle(ctx, r); err != nil {
		return err
	}

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, h.buf.Bytes(), "", "  "); err != nil {
		return err
	}

	_, err := h.writer.Write(prettyJSON.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyHandler{handler: h.handler.WithAttrs(attrs), buf: h.buf, mu: h.mu, writer: h.writer}
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	return &prettyHandler{handler: h.handler.WithGroup(name), buf: h.buf, mu: h.mu, writer: h.writer}
}
