package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 64
)

// Server message types.
const (
	msgState    = "state"
	msgError    = "error"
	msgNavigate = "navigate"
	msgInit     = "init"
	msgCommand  = "command"
	msgQuotes   = "quotes"
	msgRedirect = "redirect"
)

// wsMessage is the envelope of every socket message in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type errorData struct {
	Message string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsSession owns one upgraded connection. Writes go through a buffered queue
// drained by a single writer goroutine, so send never blocks the caller; a
// client that falls a full buffer behind is disconnected.
type wsSession struct {
	conn   *websocket.Conn
	logger *zap.Logger
	out    chan outMessage
	done   chan struct{}
	once   sync.Once
	closed func()
}

func newWSSession(conn *websocket.Conn, kind string, logger *zap.Logger, m *metrics.Collector) *wsSession {
	s := &wsSession{
		conn:   conn,
		logger: logger.With(zap.String("socket", kind)),
		out:    make(chan outMessage, sendBuffer),
		done:   make(chan struct{}),
		closed: m.SessionOpened(kind),
	}
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go s.writePump()
	return s
}

func (s *wsSession) send(typ string, data any) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.out <- outMessage{Type: typ, Data: data}:
	case <-s.done:
	default:
		s.logger.Warn("client too slow, closing socket")
		s.close()
	}
}

func (s *wsSession) sendError(message string) {
	s.send(msgError, errorData{Message: message})
}

// readLoop decodes client messages and passes them to handle until the
// connection fails or closes. A panic in handle closes this connection only.
func (s *wsSession) readLoop(handle func(wsMessage)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in socket handler", zap.Any("panic", r))
		}
	}()
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("socket read error", zap.Error(err))
			}
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendError("malformed message")
			continue
		}
		handle(msg)
	}
}

func (s *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("socket write failed", zap.Error(err))
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *wsSession) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
		s.closed()
	})
}

func decodeData(msg wsMessage, v any) bool {
	if len(msg.Data) == 0 {
		return false
	}
	return json.Unmarshal(msg.Data, v) == nil
}
