package controller

import (
	"study-assistant-be/internal/dto"
	"study-assistant-be/internal/pkg/serverutils"
	"study-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Sources(ctx *fiber.Ctx) error
	TurnSources(ctx *fiber.Ctx) error
	ShowFragments(ctx *fiber.Ctx) error
	Display(ctx *fiber.Ctx) error
	CloseDisplay(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	auth        fiber.Handler
}

func NewChatController(chatService service.IChatService, auth fiber.Handler) IChatController {
	return &chatController{
		chatService: chatService,
		auth:        auth,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1/:name")
	h.Use(c.auth)
	h.Post("", c.Send)
	h.Get("", c.History)
	h.Delete("", c.Reset)
	h.Get("sources", c.Sources)
	h.Get("turns/:turn/sources", c.TurnSources)
	h.Post("turns/:turn/sources/:filename/display", c.ShowFragments)
	h.Get("display", c.Display)
	h.Delete("display", c.CloseDisplay)
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Send(ctx.UserContext(), serverutils.SessionID(ctx), ctx.Params("name"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	res, err := c.chatService.History(ctx.UserContext(), serverutils.SessionID(ctx), ctx.Params("name"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatController) Reset(ctx *fiber.Ctx) error {
	if err := c.chatService.Reset(ctx.UserContext(), serverutils.SessionID(ctx), ctx.Params("name")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset chat", nil))
}

func (c *chatController) Sources(ctx *fiber.Ctx) error {
	res, err := c.chatService.Sources(ctx.UserContext(), serverutils.SessionID(ctx), ctx.Params("name"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get sources", res))
}

func (c *chatController) TurnSources(ctx *fiber.Ctx) error {
	turn, err := ctx.ParamsInt("turn")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "turn must be a number")
	}

	res, err := c.chatService.TurnSources(ctx.UserContext(), serverutils.SessionID(ctx), ctx.Params("name"), turn)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get turn sources", res))
}

func (c *chatController) ShowFragments(ctx *fiber.Ctx) error {
	turn, err := ctx.ParamsInt("turn")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "turn must be a number")
	}
	filename, err := filenameParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.ShowFragments(ctx.UserContext(), serverutils.SessionID(ctx), ctx.Params("name"), turn, filename)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show fragments", res))
}

func (c *chatController) Display(ctx *fiber.Ctx) error {
	res, err := c.chatService.Display(ctx.UserContext(), serverutils.SessionID(ctx), ctx.Params("name"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get display", res))
}

func (c *chatController) CloseDisplay(ctx *fiber.Ctx) error {
	if err := c.chatService.CloseDisplay(ctx.UserContext(), serverutils.SessionID(ctx), ctx.Params("name")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success close display", nil))
}
