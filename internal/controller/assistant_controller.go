package controller

import (
	"fmt"
	"io"
	"net/url"

	"study-assistant-be/internal/dto"
	"study-assistant-be/internal/pkg/serverutils"
	"study-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	GetDocuments(ctx *fiber.Ctx) error
	AddDocuments(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
	DeleteDocument(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
	auth             fiber.Handler
}

func NewAssistantController(assistantService service.IAssistantService, auth fiber.Handler) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
		auth:             auth,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Use(c.auth)
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Delete(":name", c.Delete)
	h.Get(":name/documents", c.GetDocuments)
	h.Post(":name/documents", c.AddDocuments)
	h.Get(":name/documents/:filename", c.Download)
	h.Delete(":name/documents/:filename", c.DeleteDocument)
}

func (c *assistantController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.assistantService.GetAll(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get assistants", res))
}

func (c *assistantController) Create(ctx *fiber.Ctx) error {
	req := dto.CreateAssistantRequest{Name: ctx.FormValue("name")}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	files, err := readUploads(ctx)
	if err != nil {
		return err
	}

	res, err := c.assistantService.Create(ctx.UserContext(), &req, files)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create assistant", res))
}

func (c *assistantController) Delete(ctx *fiber.Ctx) error {
	if err := c.assistantService.Delete(ctx.UserContext(), serverutils.SessionID(ctx), ctx.Params("name")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete assistant", nil))
}

func (c *assistantController) GetDocuments(ctx *fiber.Ctx) error {
	res, err := c.assistantService.GetDocuments(ctx.UserContext(), ctx.Params("name"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get documents", res))
}

func (c *assistantController) AddDocuments(ctx *fiber.Ctx) error {
	files, err := readUploads(ctx)
	if err != nil {
		return err
	}

	res, err := c.assistantService.AddDocuments(ctx.UserContext(), ctx.Params("name"), files)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success add documents", res))
}

func (c *assistantController) Download(ctx *fiber.Ctx) error {
	filename, err := filenameParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.assistantService.Download(ctx.UserContext(), ctx.Params("name"), filename)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, res.MIME)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	return ctx.Send(res.Content)
}

func (c *assistantController) DeleteDocument(ctx *fiber.Ctx) error {
	filename, err := filenameParam(ctx)
	if err != nil {
		return err
	}

	if err := c.assistantService.DeleteDocument(ctx.UserContext(), ctx.Params("name"), filename); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}

func filenameParam(ctx *fiber.Ctx) (string, error) {
	name, err := url.PathUnescape(ctx.Params("filename"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "malformed filename")
	}
	return name, nil
}

// readUploads loads every part of the "files" multipart field into memory.
func readUploads(ctx *fiber.Ctx) ([]dto.UploadedFile, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "expected multipart form with files")
	}

	headers := form.File["files"]
	files := make([]dto.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, dto.UploadedFile{Filename: fh.Filename, Content: content})
	}
	return files, nil
}
