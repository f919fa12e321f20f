// Package dashboard serves the browser order board: the pages, the alert
// sound and one live order feed session per websocket connection.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cafedash/internal/auth"
	"cafedash/internal/feed"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// RenderRows writes the table body fragment for one page.
func RenderRows(w io.Writer, page feed.Page) error {
	return templates.ExecuteTemplate(w, "rows", page)
}

type Options struct {
	Source        feed.Source
	Relay         feed.Relay
	View          *feed.View
	Window        time.Duration
	UpdateTimeout time.Duration
	SoundURL      string
	Logger        *zap.Logger
}

type Handler struct {
	opts     Options
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: opts.Logger,
	}
}

type indexData struct {
	User string
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	h.renderPage(w, "index.html", indexData{User: user})
}

// Login handles GET /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, "login.html", nil)
}

func (h *Handler) renderPage(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("rendering page", zap.String("page", name), zap.Error(err))
	}
}

// Orders handles GET /ws/orders. Each connection gets its own session
// that lives until the socket closes.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sock := newSocket(conn)
	session := feed.NewSession(feed.SessionOptions{
		Source:        h.opts.Source,
		Relay:         h.opts.Relay,
		Alert:         feed.NewChime(sock, h.opts.SoundURL, h.logger),
		Display:       sock,
		View:          h.opts.View,
		Window:        h.opts.Window,
		UpdateTimeout: h.opts.UpdateTimeout,
		Logger:        h.logger,
	})
	logger := h.logger.With(zap.String("sessionId", session.ID()))
	logger.Info("ws connected", zap.String("remoteAddr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		session.Run(ctx)
	}()
	go h.keepAlive(ctx, sock, cancel)

	h.readLoop(sock, session, logger)

	cancel()
	<-stopped
	logger.Info("ws disconnected")
}

func (h *Handler) keepAlive(ctx context.Context, sock *socket, cancel context.CancelFunc) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := sock.ping(); err != nil {
				cancel()
				return
			}
		}
	}
}

func (h *Handler) readLoop(sock *socket, session *feed.Session, logger *zap.Logger) {
	conn := sock.conn
	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read failed", zap.Error(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("ignoring malformed ws message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case "set_status":
			if !session.RequestStatus(msg.OrderID, msg.Status) {
				return
			}
		default:
			logger.Debug("ignoring ws message", zap.String("type", msg.Type))
		}
	}
}
