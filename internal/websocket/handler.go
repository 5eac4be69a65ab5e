package websocket

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/pkg/serverutils"
	"realtime-chat-be/internal/repository/memory"
	"realtime-chat-be/internal/session"
)

// Handler upgrades HTTP requests to chat sessions.
type Handler struct {
	sessions  *session.Manager
	store     gateway.Gateway
	denylist  *memory.TokenDenylist
	jwtSecret string
	log       logger.ILogger
}

func NewHandler(sessions *session.Manager, store gateway.Gateway, denylist *memory.TokenDenylist, jwtSecret string, log logger.ILogger) *Handler {
	return &Handler{
		sessions:  sessions,
		store:     store,
		denylist:  denylist,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

// RegisterRoutes mounts the upgrade endpoint. The token travels in the
// query string because browser websocket clients cannot set headers.
func (h *Handler) RegisterRoutes(r fiber.Router) {
	ws := r.Group("/ws")
	ws.Use(func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/chat", websocket.New(h.serveChat))
}

func (h *Handler) serveChat(conn *websocket.Conn) {
	ctx := context.Background()

	user, reason := h.authenticateConn(ctx, conn.Query("token"))
	if user == uuid.Nil {
		writeFrame(conn, dto.NewAuthResultFrame(false, reason))
		conn.Close()
		return
	}

	account, err := h.store.UserById(ctx, user)
	if err != nil {
		writeFrame(conn, dto.NewAuthResultFrame(false, "unknown user"))
		conn.Close()
		return
	}

	sess := h.sessions.Connect()
	if err := h.sessions.Authenticate(ctx, sess.Id, account); err != nil {
		writeFrame(conn, dto.NewAuthResultFrame(false, "authentication failed"))
		conn.Close()
		return
	}
	defer h.sessions.Close(ctx, sess.Id)

	writeFrame(conn, dto.NewAuthResultFrame(true, ""))

	client := newClient(conn, sess, h.sessions, h.log)
	go client.writePump()
	client.readPump(ctx)
}

// authenticateConn validates the handshake token. It returns uuid.Nil
// with a reason when the session must be rejected.
func (h *Handler) authenticateConn(_ context.Context, token string) (uuid.UUID, string) {
	if token == "" {
		return uuid.Nil, "missing token"
	}

	claims, err := serverutils.ParseToken(h.jwtSecret, token)
	if err != nil {
		return uuid.Nil, "invalid token"
	}
	if claims.TokenId != "" && h.denylist.IsRevoked(claims.TokenId) {
		return uuid.Nil, "token revoked"
	}

	userId, err := uuid.Parse(claims.UserId)
	if err != nil {
		return uuid.Nil, "invalid token"
	}
	return userId, ""
}

func writeFrame(conn *websocket.Conn, frame interface{}) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	conn.WriteMessage(websocket.TextMessage, data)
}
