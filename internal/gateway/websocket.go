package gateway

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/danmuck/actionwire/internal/dispatch"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsPingInterval = 15 * time.Second
	wsPongWait     = 45 * time.Second
	wsWriteWait    = 10 * time.Second

	// wsOversizeFactor bounds how far past the payload limit a message may
	// run before the connection is closed instead of answered.
	wsOversizeFactor = 4
)

// wsSession serves one connection. Messages are dispatched in arrival
// order; each binary message is one request envelope.
type wsSession struct {
	id         string
	conn       *websocket.Conn
	dispatcher *dispatch.Dispatcher
	logger     zerolog.Logger
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	session := &wsSession{
		id:         uuid.NewString(),
		conn:       conn,
		dispatcher: s.dispatcher,
	}
	session.logger = zerolog.Ctx(c.Request.Context()).With().Str("ws_session", session.id).Logger()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	session.run(ctx)
}

func (s *wsSession) run(ctx context.Context) {
	defer func() { _ = s.conn.Close() }()
	go s.pingLoop(ctx)

	s.logger.Debug().Msg("websocket session opened")
	limit := s.dispatcher.Limits().MaxPayloadBytes
	if limit <= 0 {
		limit = defaultBodyLimit
	}
	s.conn.SetReadLimit(int64(limit) * wsOversizeFactor)
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		messageType, r, err := s.conn.NextReader()
		if err != nil {
			s.logger.Debug().Err(err).Msg("websocket session closed")
			return
		}
		if messageType != websocket.BinaryMessage {
			s.closeWith(websocket.CloseUnsupportedData, "binary envelopes only")
			return
		}
		// Oversized messages are truncated to limit+1 and answered with the
		// same DecodeError an oversized HTTP body gets.
		data, err := readLimited(r, limit)
		if err == nil && len(data) > limit {
			_, err = io.Copy(io.Discard, r)
		}
		if err != nil {
			s.logger.Debug().Err(err).Msg("websocket session closed")
			return
		}

		out, err := s.dispatcher.Serve(ctx, data)
		if err != nil {
			if errors.Is(err, dispatch.ErrEmptyEnvelope) {
				s.closeWith(websocket.CloseProtocolError, "empty envelope")
			}
			return
		}
		if err := s.write(out); err != nil {
			return
		}
	}
}

// write is only called from the read loop; pings go through WriteControl,
// which gorilla allows concurrently.
func (s *wsSession) write(msg []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteMessage(websocket.BinaryMessage, msg)
}

func (s *wsSession) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
}

func (s *wsSession) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
