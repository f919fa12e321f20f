// Package editrequest forwards free-text change requests from staff to an
// automation hook.
package editrequest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrHookNotConfigured = errors.New("edit request hook is not configured")

type Forwarder struct {
	hookURL    string
	httpClient *http.Client
}

func NewForwarder(hookURL string, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Forwarder{hookURL: hookURL, httpClient: &http.Client{Timeout: timeout}}
}

func (f *Forwarder) Forward(ctx context.Context, text string) error {
	if f.hookURL == "" {
		return ErrHookNotConfigured
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshaling edit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.hookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending edit request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("edit request hook returned status %d", resp.StatusCode)
	}
	return nil
}

type sendRequest struct {
	Text string `json:"text"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type Handler struct {
	forwarder *Forwarder
	logger    *zap.Logger
}

func NewHandler(forwarder *Forwarder, logger *zap.Logger) *Handler {
	return &Handler{forwarder: forwarder, logger: logger}
}

// Send handles POST /api/sendEditRequest.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(zap.String("traceId", uuid.New().String()))

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, sendResponse{Error: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, sendResponse{Error: "text is required"})
		return
	}

	if err := h.forwarder.Forward(r.Context(), req.Text); err != nil {
		logger.Error("forwarding edit request", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, sendResponse{Error: err.Error()})
		return
	}

	logger.Info("edit request forwarded", zap.Int("length", len(req.Text)))
	writeJSON(w, http.StatusOK, sendResponse{Success: true})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
