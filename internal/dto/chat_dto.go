package dto

import (
	"time"

	"github.com/google/uuid"

	"realtime-chat-be/internal/entity"
)

// --- Auth DTOs ---

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	FullName string `json:"full_name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterResponse struct {
	Id       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	User        UserDTO `json:"user"`
}

type UserDTO struct {
	Id       uuid.UUID  `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Role     string     `json:"role"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

func ToUserDTO(u *entity.User) UserDTO {
	return UserDTO{
		Id:       u.Id,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     string(u.Role),
		Online:   u.Online,
		LastSeen: u.LastSeen,
	}
}

func ToUserDTOs(users []*entity.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserDTO(u))
	}
	return out
}

// --- Room DTOs ---

type CreateRoomRequest struct {
	Name        string `json:"name" validate:"required,min=1"`
	Description string `json:"description"`
}

type RoomResponse struct {
	Id          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToRoomResponse(r *entity.Room) RoomResponse {
	return RoomResponse{
		Id:          r.Id,
		Name:        r.Name,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func ToRoomResponses(rooms []*entity.Room) []RoomResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, ToRoomResponse(r))
	}
	return out
}

// --- Private conversation DTOs ---

type UnreadCountResponse struct {
	Total   int64               `json:"total"`
	PerPeer map[uuid.UUID]int64 `json:"per_peer,omitempty"`
}
