package controller

import (
	"errors"

	"memento-be/internal/dto"
	"memento-be/internal/pkg/serverutils"
	"memento-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPhotoController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type photoController struct {
	service service.IPhotoService
}

func NewPhotoController(service service.IPhotoService) IPhotoController {
	return &photoController{service: service}
}

func (c *photoController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/photo/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
}

func (c *photoController) Create(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	var req dto.CreatePhotoRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create photo", res))
}

func (c *photoController) Show(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)
	photoId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid photo id")
	}

	res, err := c.service.GetById(ctx.Context(), userId, photoId)
	if err != nil {
		return mapPhotoError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show photo", res))
}

func (c *photoController) List(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	res, err := c.service.GetAll(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list photos", res))
}

func (c *photoController) Update(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)
	photoId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid photo id")
	}

	var req dto.UpdatePhotoRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Update(ctx.Context(), userId, photoId, &req); err != nil {
		return mapPhotoError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success update photo", nil))
}

func (c *photoController) Delete(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)
	photoId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid photo id")
	}

	if err := c.service.Delete(ctx.Context(), userId, photoId); err != nil {
		return mapPhotoError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete photo", nil))
}

func mapPhotoError(err error) error {
	if errors.Is(err, service.ErrPhotoNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}
