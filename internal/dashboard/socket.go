package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cafedash/internal/feed"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 20 * time.Second
	readLimit  = 4096
)

type message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type viewData struct {
	State feed.State `json:"state"`
	HTML  string     `json:"html"`
}

type noticeData struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type soundData struct {
	Src string `json:"src"`
}

// clientMessage is what the page sends back over the socket.
type clientMessage struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// socket is the browser end of one session. It is both the session's
// Display and its sound Player; writes are serialized.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
	src  string
}

func newSocket(conn *websocket.Conn) *socket {
	return &socket{conn: conn}
}

func (s *socket) send(m message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling %s message: %w", m.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

func (s *socket) ping() error {
	return s.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
}

func (s *socket) Show(page feed.Page) error {
	var buf bytes.Buffer
	if err := RenderRows(&buf, page); err != nil {
		return err
	}
	return s.send(message{Type: "view", Data: viewData{State: page.State, HTML: buf.String()}})
}

func (s *socket) Notify(level, msg string) {
	_ = s.send(message{Type: "notice", Data: noticeData{Level: level, Message: msg}})
}

// Prepare tells the page which sound its single audio element should load.
func (s *socket) Prepare(src string) error {
	s.src = src
	return s.send(message{Type: "sound", Data: soundData{Src: src}})
}

// Restart asks the page to rewind its audio element and play it again.
func (s *socket) Restart() error {
	return s.send(message{Type: "alert", Data: soundData{Src: s.src}})
}

func (s *socket) Release() {}
