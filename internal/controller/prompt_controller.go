package controller

import (
	"prompt-manager-core/internal/dto"
	"prompt-manager-core/internal/pkg/serverutils"
	"prompt-manager-core/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPromptController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetAll(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	AcceptRewrite(ctx *fiber.Ctx) error
	EditHistory(ctx *fiber.Ctx) error
	DeleteHistory(ctx *fiber.Ctx) error
	CreateShare(ctx *fiber.Ctx) error
}

type promptController struct {
	service service.IPromptService
}

func NewPromptController(service service.IPromptService) IPromptController {
	return &promptController{service: service}
}

func (c *promptController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/prompt/v1")
	h.Use(auth)
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
	h.Post(":id/rewrite", c.AcceptRewrite)
	h.Post(":id/share", c.CreateShare)
	h.Put("history/:historyId", c.EditHistory)
	h.Delete("history/:historyId", c.DeleteHistory)
}

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func (c *promptController) GetAll(ctx *fiber.Ctx) error {
	var req dto.ListPromptsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	prompts, err := c.service.ListPrompts(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	res := make([]dto.PromptResponse, 0, len(prompts))
	for _, p := range prompts {
		res = append(res, dto.NewPromptResponse(p))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all prompts", res))
}

func (c *promptController) Create(ctx *fiber.Ctx) error {
	var req dto.CreatePromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	prompt, err := c.service.CreatePrompt(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create prompt", dto.NewPromptResponse(prompt)))
}

func (c *promptController) Show(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	prompt, err := c.service.GetPrompt(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show prompt", dto.NewPromptResponse(prompt)))
}

func (c *promptController) Delete(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.DeletePrompt(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete prompt", nil))
}

func (c *promptController) AcceptRewrite(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.AcceptRewriteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.PromptId = id

	history, err := c.service.AcceptRewrite(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success accept rewrite", dto.NewPromptHistoryResponse(history)))
}

func (c *promptController) EditHistory(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "historyId")
	if err != nil {
		return err
	}

	var req dto.EditHistoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.HistoryId = id

	history, err := c.service.EditHistoryText(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success edit history", dto.NewPromptHistoryResponse(history)))
}

func (c *promptController) DeleteHistory(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "historyId")
	if err != nil {
		return err
	}

	if err := c.service.DeleteHistory(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete history", nil))
}

func (c *promptController) CreateShare(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.CreateShareDraftRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	req.PromptId = id

	draft, err := c.service.CreateShareDraft(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create share draft", dto.NewSharedCreationResponse(draft)))
}
