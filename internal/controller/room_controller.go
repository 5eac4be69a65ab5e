package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/service"
)

type IRoomController interface {
	RegisterRoutes(r fiber.Router, authRequired fiber.Handler)
	CreateRoom(ctx *fiber.Ctx) error
	ListRooms(ctx *fiber.Ctx) error
	MyRooms(ctx *fiber.Ctx) error
	JoinRoom(ctx *fiber.Ctx) error
	LeaveRoom(ctx *fiber.Ctx) error
	Members(ctx *fiber.Ctx) error
	RecentMessages(ctx *fiber.Ctx) error
}

type roomController struct {
	service service.IRoomService
}

func NewRoomController(service service.IRoomService) IRoomController {
	return &roomController{service: service}
}

func (c *roomController) RegisterRoutes(r fiber.Router, authRequired fiber.Handler) {
	h := r.Group("/rooms", authRequired)
	h.Post("/", c.CreateRoom)
	h.Get("/", c.ListRooms)
	h.Get("/mine", c.MyRooms)
	h.Post("/:id/join", c.JoinRoom)
	h.Post("/:id/leave", c.LeaveRoom)
	h.Get("/:id/members", c.Members)
	h.Get("/:id/messages", c.RecentMessages)
}

func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := ctx.Locals("user_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user id in token")
	}
	return id, nil
}

func roomIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid room id")
	}
	return id, nil
}

func (c *roomController) CreateRoom(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateRoomRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.service.CreateRoom(ctx.Context(), userId, &req)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, gateway.ErrDuplicateKey) {
			status = fiber.StatusConflict
		}
		return ctx.Status(status).JSON(fiber.Map{
			"success": false,
			"code":    status,
			"message": err.Error(),
		})
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"code":    201,
		"message": "Room created",
		"data":    res,
	})
}

func (c *roomController) ListRooms(ctx *fiber.Ctx) error {
	res, err := c.service.ListRooms(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}

func (c *roomController) MyRooms(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListRoomsForUser(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}

func (c *roomController) JoinRoom(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	roomId, err := roomIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.JoinRoom(ctx.Context(), roomId, userId); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"code":    404,
				"message": "Room not found",
			})
		}
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Joined room",
	})
}

func (c *roomController) LeaveRoom(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	roomId, err := roomIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.LeaveRoom(ctx.Context(), roomId, userId); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Left room",
	})
}

func (c *roomController) Members(ctx *fiber.Ctx) error {
	roomId, err := roomIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Members(ctx.Context(), roomId)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}

func (c *roomController) RecentMessages(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	roomId, err := roomIdParam(ctx)
	if err != nil {
		return err
	}

	limit := ctx.QueryInt("limit", 0)

	res, err := c.service.RecentMessages(ctx.Context(), roomId, userId, limit)
	if err != nil {
		if errors.Is(err, gateway.ErrConstraintViolation) {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"code":    403,
				"message": "Not a member of this room",
			})
		}
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}
