package controller

import (
	"study-assistant-be/internal/pkg/serverutils"
	"study-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Info(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
	auth           fiber.Handler
}

func NewSessionController(sessionService service.ISessionService, auth fiber.Handler) ISessionController {
	return &sessionController{
		sessionService: sessionService,
		auth:           auth,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Post("", c.Start)
	h.Get("", c.auth, c.Info)
	h.Delete("", c.auth, c.End)
}

func (c *sessionController) Start(ctx *fiber.Ctx) error {
	res, err := c.sessionService.Start()
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success start session", res))
}

func (c *sessionController) Info(ctx *fiber.Ctx) error {
	res, err := c.sessionService.Info(serverutils.SessionID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *sessionController) End(ctx *fiber.Ctx) error {
	c.sessionService.End(serverutils.SessionID(ctx))
	return ctx.JSON(serverutils.SuccessResponse[any]("Success end session", nil))
}
