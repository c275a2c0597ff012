package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// UserResolver returns the authenticated user for a request.
type UserResolver func(r *http.Request) (userID string, ok bool)

// Handler handles SSE connections at GET /api/v1/events.
type Handler struct {
	manager *Manager
	resolve UserResolver
	logger  *slog.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(manager *Manager, resolve UserResolver, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		resolve: resolve,
		logger:  logger,
	}
}

// ServeHTTP streams broadcast events and events addressed to the caller.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := h.resolve(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Context().Err() != nil {
		return
	}

	sw, err := NewWriter(w, h.logger)
	if err != nil {
		h.logger.Error("failed to start event stream", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client := h.manager.Connect(userID)
	defer h.manager.Disconnect(client.ID)

	clientLogger := h.logger.With(slog.String("client_id", client.ID))

	if err := sw.Send("connected", map[string]string{
		"client_id": client.ID,
		"message":   "SSE connection established",
	}); err != nil {
		clientLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	ctx := r.Context()
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			if err := sw.Send(string(event.Type), event); err != nil {
				clientLogger.Info("client disconnected during send")
				return
			}

		case <-client.Done:
			clientLogger.Info("client closed by manager")
			return

		case <-ctx.Done():
			clientLogger.Info("client context canceled")
			return
		}
	}
}

// Writer writes SSE frames to one response.
type Writer struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	logger *slog.Logger
}

// NewWriter sets the event-stream headers and flushes them. It fails when
// the response cannot be flushed.
func NewWriter(w http.ResponseWriter, logger *slog.Logger) (*Writer, error) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)

	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("flush headers: %w", err)
	}
	return &Writer{w: w, rc: rc, logger: logger}, nil
}

// Send writes one event and flushes it.
func (sw *Writer) Send(eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}

	if err := sw.rc.Flush(); err != nil {
		return err
	}

	// Reset after each successful write so a hung client is eventually dropped.
	if err := sw.rc.SetWriteDeadline(time.Now().Add(60 * time.Second)); err != nil {
		sw.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}
	return nil
}
