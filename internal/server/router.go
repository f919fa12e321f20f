package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cafedash/internal/auth"
	"cafedash/internal/dashboard"
	"cafedash/internal/editrequest"
	"cafedash/internal/order/controller"
	"cafedash/internal/telephony"
)

// Handlers groups everything the router mounts. Telephony and Sound are
// optional.
type Handlers struct {
	Orders         *controller.OrderController
	Auth           *auth.Handler
	Tokens         *auth.Tokens
	Dashboard      *dashboard.Handler
	Telephony      *telephony.Handler
	EditRequest    *editrequest.Handler
	Sound          http.Handler
	SoundURL       string
	AllowedOrigins []string
}

func NewRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if len(h.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(auth.Middleware(h.Tokens))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/login", h.Dashboard.Login)
	r.Post("/api/login", h.Auth.Login)
	r.Post("/api/logout", h.Auth.Logout)
	if h.Sound != nil && h.SoundURL != "" {
		r.Handle(h.SoundURL, h.Sound)
	}

	r.Get("/", h.Dashboard.Index)
	r.Get("/ws/orders", h.Dashboard.Orders)

	r.Route("/api", func(r chi.Router) {
		r.Get("/orders", h.Orders.ListOrders)
		r.Post("/orders", h.Orders.UpdateStatus)
		r.Post("/sendEditRequest", h.EditRequest.Send)
		if h.Telephony != nil {
			r.Get("/usage", h.Telephony.Usage)
			r.Get("/call-route", h.Telephony.CallRoute)
			r.Post("/toggle-call-route", h.Telephony.ToggleCallRoute)
		}
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
