package controller

import (
	"prompt-manager-core/internal/deeplink"
	"prompt-manager-core/internal/dto"
	"prompt-manager-core/internal/pkg/serverutils"
	"prompt-manager-core/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IShareController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	ListPublic(ctx *fiber.Ctx) error
	Find(ctx *fiber.Ctx) error
	Push(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Import(ctx *fiber.Ctx) error
	Cleanup(ctx *fiber.Ctx) error
}

type shareController struct {
	prompts  service.IPromptService
	sync     service.ISyncService
	importer *service.ImportResolver
	scheme   string
}

func NewShareController(prompts service.IPromptService, sync service.ISyncService, importer *service.ImportResolver, scheme string) IShareController {
	return &shareController{
		prompts:  prompts,
		sync:     sync,
		importer: importer,
		scheme:   scheme,
	}
}

func (c *shareController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/share/v1")
	h.Get("public", c.ListPublic)

	h.Use(auth)
	h.Get("", c.Find)
	h.Post("import", c.Import)
	h.Post("cleanup", c.Cleanup)
	h.Post(":id/push", c.Push)
	h.Delete(":id", c.Delete)
}

func (c *shareController) ListPublic(ctx *fiber.Ctx) error {
	shared, err := c.sync.ListPublic(ctx.UserContext(), ctx.QueryInt("limit"))
	if err != nil {
		return err
	}

	res := make([]dto.SharedCreationResponse, 0, len(shared))
	for _, sc := range shared {
		item := dto.NewSharedCreationResponse(sc)
		item.Link = deeplink.Build(c.scheme, sc.Id)
		res = append(res, item)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list public shares", res))
}

// Find is the best-effort content lookup; several shares may match.
func (c *shareController) Find(ctx *fiber.Ctx) error {
	req := dto.FindSharedCreationRequest{
		Name: ctx.Query("name"),
		Text: ctx.Query("text"),
	}
	if desc := ctx.Query("description"); desc != "" {
		req.Description = &desc
	}

	found, err := c.prompts.FindSharedCreation(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	res := make([]dto.SharedCreationResponse, 0, len(found))
	for _, sc := range found {
		res = append(res, dto.NewSharedCreationResponse(sc))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success find shares", res))
}

func (c *shareController) Push(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	sc, err := c.sync.PushSaved(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	res := dto.NewSharedCreationResponse(sc)
	res.Link = deeplink.Build(c.scheme, sc.Id)
	return ctx.JSON(serverutils.SuccessResponse("Success push share", res))
}

// Delete removes a pushed share remotely first; a draft is simply discarded.
func (c *shareController) Delete(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	sc, err := c.sync.LoadSharedCreation(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	if sc.IsDraft() {
		err = c.sync.DiscardDraft(ctx.UserContext(), id)
	} else {
		err = c.sync.Delete(ctx.UserContext(), sc)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete share", nil))
}

func (c *shareController) Import(ctx *fiber.Ctx) error {
	var req dto.ImportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	promptID, err := c.importer.Resolve(ctx.UserContext(), req.URI)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success import share", dto.ImportResponse{PromptId: promptID}))
}

func (c *shareController) Cleanup(ctx *fiber.Ctx) error {
	report, err := c.sync.CleanupOrphans(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success cleanup shares", dto.CleanupResponse{
		Checked:     report.Checked,
		Kept:        report.Kept,
		Deleted:     report.Deleted,
		Unreachable: report.Unreachable,
	}))
}
