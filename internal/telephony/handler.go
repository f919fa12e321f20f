package telephony

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	"go.uber.org/zap"

	"cafedash/internal/config"
)

// NewTwilioAPI builds the REST client for the configured account.
func NewTwilioAPI(cfg config.TwilioConfig) TwilioAPI {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return client.Api
}

type toggleRequest struct {
	UseWebhook *bool `json:"useWebhook"`
}

type toggleResponse struct {
	Success bool   `json:"success"`
	NewURL  string `json:"newUrl,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Handler struct {
	usage  *UsageService
	router *CallRouter
	logger *zap.Logger
}

func NewHandler(usage *UsageService, router *CallRouter, logger *zap.Logger) *Handler {
	return &Handler{usage: usage, router: router, logger: logger}
}

// Usage handles GET /api/usage.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(zap.String("traceId", uuid.New().String()))

	report, err := h.usage.Report()
	if err != nil {
		logger.Error("fetching usage", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// ToggleCallRoute handles POST /api/toggle-call-route.
func (h *Handler) ToggleCallRoute(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(zap.String("traceId", uuid.New().String()))

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UseWebhook == nil {
		h.writeJSON(w, http.StatusBadRequest, toggleResponse{Error: "useWebhook must be a boolean"})
		return
	}

	newURL, err := h.router.Route(*req.UseWebhook)
	if err != nil {
		logger.Error("toggling call route", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, toggleResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, toggleResponse{Success: true, NewURL: newURL})
}

// CallRoute handles GET /api/call-route.
func (h *Handler) CallRoute(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.router.Enabled()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
