package dto

import (
	"time"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
)

// Client → server frame types.
const (
	FrameJoinRoom    = "join_room"
	FrameLeaveRoom   = "leave_room"
	FrameSendMessage = "send_message"
	FrameSendPrivate = "send_private"
)

// Server → client frame types.
const (
	FrameAuthResult     = "auth_result"
	FrameDelivered      = "delivered"
	FramePresenceUpdate = "presence_update"
	FrameError          = "error"
)

// ClientFrame is the single envelope for everything a client sends over
// the websocket after the handshake.
type ClientFrame struct {
	Type       string     `json:"type"`
	RoomId     *uuid.UUID `json:"room_id,omitempty"`
	ReceiverId *uuid.UUID `json:"receiver_id,omitempty"`
	Text       string     `json:"text,omitempty"`
	Kind       string     `json:"kind,omitempty"`
}

type AuthResultFrame struct {
	Type   string `json:"type"`
	Ok     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func NewAuthResultFrame(ok bool, reason string) AuthResultFrame {
	return AuthResultFrame{Type: FrameAuthResult, Ok: ok, Reason: reason}
}

type DeliveredFrame struct {
	Type    string          `json:"type"`
	Message MessageResponse `json:"message"`
}

func NewDeliveredFrame(msg *entity.Message) DeliveredFrame {
	return DeliveredFrame{Type: FrameDelivered, Message: ToMessageResponse(msg)}
}

type PresenceUpdateFrame struct {
	Type   string    `json:"type"`
	UserId uuid.UUID `json:"user_id"`
	Online bool      `json:"online"`
}

func NewPresenceUpdateFrame(userId uuid.UUID, online bool) PresenceUpdateFrame {
	return PresenceUpdateFrame{Type: FramePresenceUpdate, UserId: userId, Online: online}
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorFrame(code, msg string) ErrorFrame {
	return ErrorFrame{Type: FrameError, Code: code, Message: msg}
}

type MessageResponse struct {
	Id         int64      `json:"id"`
	SenderId   uuid.UUID  `json:"sender_id"`
	SenderName string     `json:"sender_name,omitempty"`
	RoomId     *uuid.UUID `json:"room_id,omitempty"`
	ReceiverId *uuid.UUID `json:"receiver_id,omitempty"`
	Text       string     `json:"text"`
	Kind       string     `json:"kind"`
	SentAt     time.Time  `json:"sent_at"`
}

func ToMessageResponse(msg *entity.Message) MessageResponse {
	return MessageResponse{
		Id:         msg.Id,
		SenderId:   msg.SenderId,
		SenderName: msg.SenderName,
		RoomId:     msg.RoomId,
		ReceiverId: msg.ReceiverId,
		Text:       msg.Body,
		Kind:       string(msg.Kind),
		SentAt:     msg.SentAt,
	}
}

func ToMessageResponses(msgs []*entity.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToMessageResponse(m))
	}
	return out
}
