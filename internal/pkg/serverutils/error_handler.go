package serverutils

import (
	"errors"

	"prompt-manager-core/internal/deeplink"
	"prompt-manager-core/internal/dto"
	"prompt-manager-core/internal/service"
	"prompt-manager-core/pkg/remote"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var deleteErr *service.DeleteError
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, dto.ErrInvalidRequest), errors.Is(err, deeplink.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrPromptNotFound),
		errors.Is(err, service.ErrHistoryNotFound),
		errors.Is(err, service.ErrSharedCreationNotFound),
		remote.IsNotFound(err):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrLastHistory), errors.Is(err, service.ErrNotDraft):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrUnusableRecord):
		return fiber.StatusUnprocessableEntity
	}

	if _, ok := remote.AsConflict(err); ok {
		return fiber.StatusConflict
	}
	if errors.As(err, &deleteErr) || remote.IsTransport(err) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler is installed as the fiber app's error handler.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := StatusFor(err)
	message := err.Error()
	if code == fiber.StatusInternalServerError {
		message = "internal server error"
	}
	return ctx.Status(code).JSON(ErrorResponse(code, message))
}
