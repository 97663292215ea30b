package serverutils

import (
	"errors"

	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/command"
	"study-assistant-be/pkg/rag/conversation"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status, body := MapError(err)
		body.Code = status
		return ctx.Status(status).JSON(body)
	}
}

// MapError picks the status code and response body for err.
func MapError(err error) (int, *Response[interface{}]) {
	var fe *fiber.Error
	var verr *ValidationError
	var ierr *rag.IngestionError
	var perr *rag.PartialDeleteError
	var derr *rag.DeleteError

	switch {
	case errors.As(err, &fe):
		return fe.Code, ErrorResponse(fe.Message, nil)
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, ErrorResponse("Validation failed", verr.Fields)
	case errors.Is(err, rag.ErrInvalidName),
		errors.Is(err, rag.ErrInvalidFilename),
		errors.Is(err, rag.ErrUnsupportedType),
		errors.Is(err, rag.ErrNoDocuments):
		return fiber.StatusBadRequest, ErrorResponse(err.Error(), nil)
	case errors.Is(err, rag.ErrDuplicateFilename),
		errors.Is(err, rag.ErrAssistantExists),
		errors.Is(err, rag.ErrAssistantNotReady):
		return fiber.StatusConflict, ErrorResponse(err.Error(), nil)
	case errors.Is(err, rag.ErrAssistantNotFound),
		errors.Is(err, rag.ErrDocumentNotFound),
		errors.Is(err, conversation.ErrTurnNotFound),
		errors.Is(err, conversation.ErrNoFragments):
		return fiber.StatusNotFound, ErrorResponse(err.Error(), nil)
	case errors.Is(err, command.ErrNoWorkspace),
		errors.Is(err, ErrInvalidToken):
		return fiber.StatusUnauthorized, ErrorResponse(err.Error(), nil)
	case errors.As(err, &ierr):
		return fiber.StatusBadGateway, ErrorResponse(err.Error(), fiber.Map{
			"assistant": ierr.Assistant,
			"files":     ierr.Files,
		})
	case errors.As(err, &perr):
		return fiber.StatusInternalServerError, ErrorResponse(err.Error(), fiber.Map{
			"completed": perr.Completed,
			"failed":    perr.FailedSteps(),
		})
	case errors.As(err, &derr):
		steps := make([]string, len(derr.Failed))
		for i, f := range derr.Failed {
			steps[i] = f.Step
		}
		completed := derr.Completed
		if completed == nil {
			completed = []string{}
		}
		return fiber.StatusInternalServerError, ErrorResponse(err.Error(), fiber.Map{
			"completed": completed,
			"failed":    steps,
		})
	}
	return fiber.StatusInternalServerError, ErrorResponse(err.Error(), nil)
}
