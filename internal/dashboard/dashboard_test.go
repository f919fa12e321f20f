package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cafedash/internal/domain"
	"cafedash/internal/feed"
)

type fakeSource struct {
	snapshots chan domain.Snapshot
}

func (f *fakeSource) Watch(ctx context.Context, sinceMillis int64, push func(domain.Snapshot)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap := <-f.snapshots:
			push(snap)
		}
	}
}

type fakeRelay struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRelay) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, orderID+"="+string(status))
	return f.err
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.Orders))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads until a message of the given type matching match arrives.
func next(t *testing.T, conn *websocket.Conn, typ string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg received
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == typ && (match == nil || match(msg.Data)) {
			return msg.Data
		}
	}
}

func viewIn(state feed.State, contains string) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var v viewData
		if json.Unmarshal(raw, &v) != nil {
			return false
		}
		return v.State == state && strings.Contains(v.HTML, contains)
	}
}

func newTestHandler(src feed.Source, relay feed.Relay) *Handler {
	return NewHandler(Options{
		Source:        src,
		Relay:         relay,
		View:          feed.NewView(time.UTC),
		Window:        24 * time.Hour,
		UpdateTimeout: time.Second,
		SoundURL:      "/static/order-alert.mp3",
		Logger:        zap.NewNop(),
	})
}

func TestRenderRows(t *testing.T) {
	view := feed.NewView(time.UTC)

	tests := []struct {
		name     string
		model    feed.Model
		contains []string
		excludes []string
	}{
		{
			name:     "loading",
			model:    feed.Model{},
			contains: []string{"Loading orders"},
		},
		{
			name:     "error",
			model:    feed.Model{Err: errors.New("boom")},
			contains: []string{feed.LoadErrorMessage},
			excludes: []string{"boom"},
		},
		{
			name:     "empty",
			model:    feed.Model{Loaded: true},
			contains: []string{feed.EmptyPlaceholder},
		},
		{
			name: "rows are escaped",
			model: feed.Model{
				Loaded: true,
				Orders: []domain.Order{{ID: "A", CustomerName: "<b>Ann</b>", Status: domain.StatusReady, Timestamp: 1}},
				Saving: map[string]bool{"A": true},
			},
			contains: []string{`data-order-id="A"`, "&lt;b&gt;Ann&lt;/b&gt;", `value="Ready" selected`, "disabled", "In Progress"},
			excludes: []string{"<b>Ann</b>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderRows(&buf, view.Render(tt.model)))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestOrders_StreamsViewsAndAlerts(t *testing.T) {
	src := &fakeSource{snapshots: make(chan domain.Snapshot)}
	conn := dial(t, newTestHandler(src, &fakeRelay{}))

	sound := next(t, conn, "sound", nil)
	assert.JSONEq(t, `{"src":"/static/order-alert.mp3"}`, string(sound))
	next(t, conn, "view", viewIn(feed.StateLoading, "Loading"))

	src.snapshots <- domain.Snapshot{"A": {ID: "A", CustomerName: "Ann", Timestamp: 100}}
	next(t, conn, "view", viewIn(feed.StateData, "Ann"))

	src.snapshots <- domain.Snapshot{
		"A": {ID: "A", CustomerName: "Ann", Timestamp: 100},
		"B": {ID: "B", CustomerName: "Bob", Timestamp: 200},
	}
	alert := next(t, conn, "alert", nil)
	assert.JSONEq(t, `{"src":"/static/order-alert.mp3"}`, string(alert))
	next(t, conn, "view", viewIn(feed.StateData, "Bob"))
}

func TestOrders_SetStatus(t *testing.T) {
	src := &fakeSource{snapshots: make(chan domain.Snapshot)}
	relay := &fakeRelay{}
	conn := dial(t, newTestHandler(src, relay))

	next(t, conn, "view", viewIn(feed.StateLoading, ""))
	src.snapshots <- domain.Snapshot{"A": {ID: "A", CustomerName: "Ann", Timestamp: 100}}
	next(t, conn, "view", viewIn(feed.StateData, "Ann"))

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "set_status", OrderID: "A", Status: "Ready"}))

	next(t, conn, "view", viewIn(feed.StateData, `value="Ready" selected`))
	relay.mu.Lock()
	assert.Equal(t, []string{"A=Ready"}, relay.calls)
	relay.mu.Unlock()
}

func TestOrders_FailedUpdateSendsNotice(t *testing.T) {
	src := &fakeSource{snapshots: make(chan domain.Snapshot)}
	relay := &fakeRelay{err: errors.New("relay down")}
	conn := dial(t, newTestHandler(src, relay))

	src.snapshots <- domain.Snapshot{"A": {ID: "A", CustomerName: "Ann", Timestamp: 100}}
	next(t, conn, "view", viewIn(feed.StateData, "Ann"))

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "set_status", OrderID: "A", Status: "Ready"}))

	raw := next(t, conn, "notice", nil)
	var n noticeData
	require.NoError(t, json.Unmarshal(raw, &n))
	assert.Equal(t, "error", n.Level)
	assert.Contains(t, n.Message, "relay down")
}

func TestOrders_InvalidStatusNeverReachesRelay(t *testing.T) {
	src := &fakeSource{snapshots: make(chan domain.Snapshot)}
	relay := &fakeRelay{}
	conn := dial(t, newTestHandler(src, relay))

	src.snapshots <- domain.Snapshot{"A": {ID: "A", Timestamp: 100}}
	next(t, conn, "view", viewIn(feed.StateData, `data-order-id="A"`))

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "set_status", OrderID: "A", Status: "Shipped"}))

	next(t, conn, "notice", nil)
	relay.mu.Lock()
	assert.Empty(t, relay.calls)
	relay.mu.Unlock()
}

func TestPages(t *testing.T) {
	h := newTestHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="orders"`)
	assert.Contains(t, rec.Body.String(), "/ws/orders")

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/login")
}

func TestSound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3fake-audio"), 0o600))

	sound, err := LoadSound(path)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	sound.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/order-alert.mp3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ID3fake-audio", rec.Body.String())
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
}

func TestSound_Missing(t *testing.T) {
	_, err := LoadSound(filepath.Join(t.TempDir(), "nope.mp3"))
	assert.Error(t, err)

	var sound *Sound
	rec := httptest.NewRecorder()
	sound.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/order-alert.mp3", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
