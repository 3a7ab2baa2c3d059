package controller

import (
	"errors"

	"memento-be/internal/dto"
	"memento-be/internal/pkg/serverutils"
	"memento-be/internal/service"
	"memento-be/pkg/qcache"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SendTurn(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
	Report(ctx *fiber.Ctx) error
	TaskStatus(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService      service.ISessionService
	conversationService service.IConversationService
	producerService     service.IProducerService
}

func NewSessionController(
	sessionService service.ISessionService,
	conversationService service.IConversationService,
	producerService service.IProducerService,
) ISessionController {
	return &sessionController{
		sessionService:      sessionService,
		conversationService: conversationService,
		producerService:     producerService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get("task/:taskId", c.TaskStatus)
	h.Get(":id", c.Show)
	h.Post(":id/turn", c.SendTurn)
	h.Post(":id/end", c.End)
	h.Get(":id/report", c.Report)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := c.sessionService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return mapSessionError(err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	res, err := c.sessionService.GetAll(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.sessionService.GetById(ctx.Context(), userId, sessionId)
	if err != nil {
		return mapSessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *sessionController) SendTurn(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	var req dto.SendTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.conversationService.SendTurn(ctx.Context(), userId, sessionId, &req)
	if err != nil {
		return mapSessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send turn", res))
}

func (c *sessionController) End(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	if err := c.sessionService.End(ctx.Context(), userId, sessionId); err != nil {
		return mapSessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success end session", nil))
}

func (c *sessionController) Report(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.sessionService.GetReport(ctx.Context(), userId, sessionId)
	if err != nil {
		return mapSessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get report", res))
}

func (c *sessionController) TaskStatus(ctx *fiber.Ctx) error {
	taskId := ctx.Params("taskId")

	res, err := c.producerService.GetStatus(ctx.Context(), taskId)
	if err != nil {
		if errors.Is(err, qcache.ErrTaskNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "task not found")
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get task status", res))
}

func mapSessionError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPhotoNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionClosed):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return err
}
