package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"realtime-chat-be/internal/service"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router, authRequired fiber.Handler)
	Me(ctx *fiber.Ctx) error
	OnlineUsers(ctx *fiber.Ctx) error
	UnreadCount(ctx *fiber.Ctx) error
	Conversation(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IUserService
}

func NewUserController(service service.IUserService) IUserController {
	return &userController{service: service}
}

func (c *userController) RegisterRoutes(r fiber.Router, authRequired fiber.Handler) {
	h := r.Group("/users", authRequired)
	h.Get("/me", c.Me)
	h.Get("/online", c.OnlineUsers)
	h.Get("/me/unread", c.UnreadCount)
	h.Get("/:id/conversation", c.Conversation)
}

func (c *userController) Me(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Profile(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}

func (c *userController) OnlineUsers(ctx *fiber.Ctx) error {
	res, err := c.service.OnlineUsers(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}

func (c *userController) UnreadCount(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.UnreadCount(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}

func (c *userController) Conversation(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	peerId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
	}

	limit := ctx.QueryInt("limit", 0)

	res, err := c.service.Conversation(ctx.Context(), userId, peerId, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}
