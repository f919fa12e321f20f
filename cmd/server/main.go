package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cafedash/internal/auth"
	"cafedash/internal/config"
	"cafedash/internal/dashboard"
	"cafedash/internal/editrequest"
	"cafedash/internal/feed"
	"cafedash/internal/infrastructure/logger"
	"cafedash/internal/infrastructure/mysql"
	"cafedash/internal/order"
	"cafedash/internal/server"
	"cafedash/internal/telephony"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	var db *sql.DB
	if cfg.Store.Driver == config.StoreDriverMySQL {
		db, err = mysql.NewConnection(cfg.Database)
		if err != nil {
			zapLogger.Fatal("connecting to database", zap.Error(err))
		}
		defer db.Close()
		zapLogger.Info("database connected")
	}

	store, err := order.NewStore(cfg, db)
	if err != nil {
		zapLogger.Fatal("creating order store", zap.Error(err))
	}
	zapLogger.Info("order store ready", zap.String("driver", cfg.Store.Driver))

	orderModule := order.NewModule(store, cfg, zapLogger)

	if cfg.Auth.Username == "" {
		zapLogger.Warn("AUTH_USERNAME is empty, nobody will be able to log in")
	}
	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		zapLogger.Fatal("creating session tokens", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == "" {
		zapLogger.Warn("AUTH_JWT_SECRET is empty, sessions will not survive a restart")
	}

	sound, err := dashboard.LoadSound(cfg.Alert.SoundPath)
	if err != nil {
		zapLogger.Warn("alert sound unavailable", zap.Error(err))
	}

	loc := cfg.Feed.Location()
	handlers := server.Handlers{
		Orders:    orderModule.Controller,
		Auth:      auth.NewHandler(auth.NewAuthenticator(cfg.Auth), tokens, zapLogger),
		Tokens:    tokens,
		Telephony: newTelephony(cfg, loc, zapLogger),
		Dashboard: dashboard.NewHandler(dashboard.Options{
			Source:        orderModule.Store,
			Relay:         orderModule.UpdateStatus,
			View:          feed.NewView(loc),
			Window:        cfg.Feed.Window,
			UpdateTimeout: cfg.Feed.UpdateTimeout,
			SoundURL:      cfg.Alert.SoundURL,
			Logger:        zapLogger,
		}),
		EditRequest:    editrequest.NewHandler(editrequest.NewForwarder(cfg.EditRequest.HookURL, cfg.EditRequest.Timeout), zapLogger),
		SoundURL:       cfg.Alert.SoundURL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if sound != nil {
		handlers.Sound = sound
	}

	router := server.NewRouter(handlers, zapLogger)

	baseCtx, stopSessions := context.WithCancel(context.Background())
	defer stopSessions()

	srv := server.New(baseCtx, cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopSessions()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	if err := orderModule.Close(); err != nil {
		zapLogger.Error("closing order module", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

// newTelephony wires usage and call routing when Twilio credentials are
// configured. Without them the routes are not mounted.
func newTelephony(cfg *config.Config, loc *time.Location, logger *zap.Logger) *telephony.Handler {
	if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" {
		logger.Warn("twilio credentials missing, usage and call routing disabled")
		return nil
	}

	state, err := telephony.LoadRouteState(cfg.CallRoute.StatePath)
	if err != nil {
		logger.Fatal("loading call route state", zap.Error(err))
	}

	api := telephony.NewTwilioAPI(cfg.Twilio)
	return telephony.NewHandler(
		telephony.NewUsageService(api, cfg.Twilio.PhoneNumber, loc),
		telephony.NewCallRouter(api, cfg.Twilio.PhoneNumberSID, cfg.CallRoute.WebhookURL, cfg.CallRoute.FallbackURL, state, logger),
		logger,
	)
}
