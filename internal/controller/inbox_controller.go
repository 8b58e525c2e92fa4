package controller

import (
	"messaging-be/internal/pkg/serverutils"
	"messaging-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IInboxController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Unread(ctx *fiber.Ctx) error
	UnreadCount(ctx *fiber.Ctx) error
}

type inboxController struct {
	service service.IInboxService
}

func NewInboxController(service service.IInboxService) IInboxController {
	return &inboxController{service: service}
}

func (c *inboxController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/inbox")
	h.Use(auth)
	h.Get("/unread", c.Unread)
	h.Get("/unread-count", c.UnreadCount)
}

func (c *inboxController) Unread(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.UnreadFor(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get unread messages", res))
}

func (c *inboxController) UnreadCount(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.UnreadCount(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get unread count", res))
}
