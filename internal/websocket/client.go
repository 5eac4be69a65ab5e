package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client bridges one websocket connection to its server-side session.
// Frames arriving on the socket become session operations; frames the
// broker queues on the session drain back out over the socket.
type Client struct {
	conn     *websocket.Conn
	sess     *session.Session
	sessions *session.Manager
	log      logger.ILogger
}

func newClient(conn *websocket.Conn, sess *session.Session, sessions *session.Manager, log logger.ILogger) *Client {
	return &Client{
		conn:     conn,
		sess:     sess,
		sessions: sessions,
		log:      log,
	}
}

// readPump parses inbound frames and dispatches them. It owns the
// connection's read side and runs on the handler goroutine.
func (c *Client) readPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("Websocket", "Unexpected close", map[string]interface{}{
					"session_id": c.sess.Id, "error": err.Error(),
				})
			}
			return
		}

		var frame dto.ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.sendError("bad_frame", "malformed frame")
			continue
		}

		if err := c.dispatch(ctx, &frame); err != nil {
			c.sendError(errorCode(err), err.Error())
		}
	}
}

func (c *Client) dispatch(ctx context.Context, frame *dto.ClientFrame) error {
	switch frame.Type {
	case dto.FrameJoinRoom:
		if frame.RoomId == nil {
			return errors.New("join_room requires room_id")
		}
		return c.sessions.JoinRoom(ctx, c.sess.Id, *frame.RoomId)

	case dto.FrameLeaveRoom:
		if frame.RoomId == nil {
			return errors.New("leave_room requires room_id")
		}
		return c.sessions.LeaveRoom(c.sess.Id, *frame.RoomId)

	case dto.FrameSendMessage:
		_, err := c.sessions.Send(ctx, c.sess.Id, frame.RoomId, nil, frame.Text, entity.MessageKind(frame.Kind))
		return err

	case dto.FrameSendPrivate:
		_, err := c.sessions.Send(ctx, c.sess.Id, nil, frame.ReceiverId, frame.Text, entity.MessageKind(frame.Kind))
		return err

	default:
		return errors.New("unknown frame type: " + frame.Type)
	}
}

// writePump drains the session's delivery queue onto the socket and
// keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.sess.Outbound():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.sess.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendError routes an error frame through the session queue so it is
// ordered with normal deliveries.
func (c *Client) sendError(code, msg string) {
	data, err := json.Marshal(dto.NewErrorFrame(code, msg))
	if err != nil {
		return
	}
	c.sessions.Deliver(c.sess.Id, data)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrEmptyMessage):
		return "empty_message"
	case errors.Is(err, session.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, session.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, gateway.ErrNotFound):
		return "not_found"
	case errors.Is(err, gateway.ErrConstraintViolation):
		return "forbidden"
	default:
		return "internal"
	}
}
