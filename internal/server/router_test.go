package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cafedash/internal/auth"
	"cafedash/internal/config"
	"cafedash/internal/dashboard"
	"cafedash/internal/domain"
	"cafedash/internal/editrequest"
	"cafedash/internal/order/controller"
)

type stubUseCases struct{}

func (stubUseCases) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	return nil
}

func (stubUseCases) ListRecent(ctx context.Context) ([]domain.Order, error) {
	return []domain.Order{{ID: "A", CustomerName: "Ann", Status: domain.StatusPending, Timestamp: 1}}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.Tokens) {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)

	logger := zap.NewNop()
	h := Handlers{
		Orders:      controller.NewOrderController(stubUseCases{}, stubUseCases{}, logger),
		Auth:        auth.NewHandler(auth.NewAuthenticator(config.AuthConfig{Username: "staff", Password: "latte"}), tokens, logger),
		Tokens:      tokens,
		Dashboard:   dashboard.NewHandler(dashboard.Options{Logger: logger}),
		EditRequest: editrequest.NewHandler(editrequest.NewForwarder("", time.Second), logger),
	}
	return NewRouter(h, logger), tokens
}

func TestRouter_PublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/metrics", "/login"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_RequiresLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRouter_LoginThenOrders(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"staff","password":"latte"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"customerName":"Ann"`)

	req = httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"orderId":"A","status":"Ready"}`))
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Order status updated successfully"}`, rec.Body.String())
}

func TestRouter_TelephonyOptional(t *testing.T) {
	router, tokens := newTestRouter(t)
	token, _, err := tokens.Issue("staff")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
