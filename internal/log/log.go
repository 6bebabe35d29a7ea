package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// DefaultHistory is how many records the default logger keeps.
const DefaultHistory = 20

type history struct {
	mu      sync.Mutex
	size    int
	records []slog.Record
}

func (h *history) add(r slog.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	if len(h.records) > h.size {
		h.records = h.records[len(h.records)-h.size:]
	}
}

// HistoryHandler is a slog.Handler that remembers the most recent records it
// handled before passing them on.
type HistoryHandler struct {
	slog.Handler
	history *history
}

// NewHistoryHandler creates a HistoryHandler that keeps up to size records.
func NewHistoryHandler(handler slog.Handler, size int) *HistoryHandler {
	return &HistoryHandler{
		Handler: handler,
		history: &history{size: size},
	}
}

// Handle stores the record and passes it on.
func (h *HistoryHandler) Handle(ctx context.Context, r slog.Record) error {
	h.history.add(r.Clone())
	return h.Handler.Handle(ctx, r)
}

// WithAttrs shares the history with the returned handler.
func (h *HistoryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &HistoryHandler{Handler: h.Handler.WithAttrs(attrs), history: h.history}
}

// WithGroup shares the history with the returned handler.
func (h *HistoryHandler) WithGroup(name string) slog.Handler {
	return &HistoryHandler{Handler: h.Handler.WithGroup(name), history: h.history}
}

// Logs returns the stored records, oldest first.
func (h *HistoryHandler) Logs() []slog.Record {
	h.history.mu.Lock()
	defer h.history.mu.Unlock()
	return append([]slog.Record(nil), h.history.records...)
}

var defaultHandler *HistoryHandler

// Init installs a text logger writing to w at level as the default logger,
// and returns it.
func Init(w io.Writer, level slog.Leveler) *slog.Logger {
	defaultHandler = NewHistoryHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}), DefaultHistory)
	logger := slog.New(defaultHandler)
	slog.SetDefault(logger)
	return logger
}

// Logs returns the stored records of the default logger.
func Logs() []slog.Record {
	if defaultHandler == nil {
		return nil
	}
	return defaultHandler.Logs()
}

// OpenFile opens path for logging, clearing whatever a previous run left.
func OpenFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}
