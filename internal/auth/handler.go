package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	authenticator *Authenticator
	tokens        *Tokens
	logger        *zap.Logger
}

func NewHandler(authenticator *Authenticator, tokens *Tokens, logger *zap.Logger) *Handler {
	return &Handler{authenticator: authenticator, tokens: tokens, logger: logger}
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, loginResponse{Message: "Invalid request body"})
		return
	}

	if err := h.authenticator.Check(req.Username, req.Password); err != nil {
		h.logger.Warn("login rejected", zap.String("username", req.Username))
		writeJSON(w, http.StatusUnauthorized, loginResponse{Message: "Invalid credentials"})
		return
	}

	token, _, err := h.tokens.Issue(req.Username)
	if err != nil {
		h.logger.Error("issuing session token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, loginResponse{Message: "Login failed"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("login succeeded", zap.String("username", req.Username))
	writeJSON(w, http.StatusOK, loginResponse{Success: true})
}

// Logout handles POST /api/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	writeJSON(w, http.StatusOK, loginResponse{Success: true})
}

var publicPrefixes = []string{"/login", "/api/login", "/api/logout", "/static/", "/healthz", "/metrics"}

type userKey struct{}

// UserFrom returns the logged-in username stored by Middleware.
func UserFrom(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(userKey{}).(string)
	return user, ok
}

// Middleware lets public paths through and requires a valid session
// cookie everywhere else. API and websocket callers get a 401; pages are
// redirected to the login page.
func Middleware(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range publicPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			cookie, err := r.Cookie(CookieName)
			if err == nil {
				if user, verr := tokens.Verify(cookie.Value); verr == nil {
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
					return
				}
			}

			if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/ws/") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
