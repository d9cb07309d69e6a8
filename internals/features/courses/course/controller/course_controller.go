package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kursusku_backend/internals/features/courses/course/dto"
	svc "kursusku_backend/internals/features/courses/course/service"
	helper "kursusku_backend/internals/helpers"
	"kursusku_backend/internals/helpers/apperror"
	authMw "kursusku_backend/internals/middlewares/auth"
)

type CourseController struct {
	Service *svc.CourseService
}

func NewCourseController(s *svc.CourseService) *CourseController {
	return &CourseController{Service: s}
}

func actorFrom(c *fiber.Ctx) (svc.Actor, error) {
	id, err := authMw.GetUserID(c)
	if err != nil {
		return svc.Actor{}, err
	}
	return svc.Actor{UserID: id, IsAdmin: authMw.IsAdmin(c)}, nil
}

func courseIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, apperror.ValidationMsg("id", "course id tidak valid")
	}
	return id, nil
}

/* ===================== PUBLIC ===================== */

// GET /api/public/courses?q=&page=&per_page=
func (h *CourseController) ListPublished(c *fiber.Ctx) error {
	pg := helper.ResolvePaging(c, 12, 50)
	rows, total, err := h.Service.ListPublished(c.UserContext(), dto.ListQuery{
		Q:      c.Query("q"),
		Offset: pg.Offset,
		Limit:  pg.Limit,
	})
	if err != nil {
		return err
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

// GET /api/public/courses/:slug
func (h *CourseController) GetBySlug(c *fiber.Ctx) error {
	course, err := h.Service.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.FromModel(course))
}

/* ===================== INSTRUCTOR / ADMIN ===================== */

// GET /api/a/courses/mine
func (h *CourseController) ListMine(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	rows, err := h.Service.ListMine(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.FromModels(rows))
}

// POST /api/a/courses
func (h *CourseController) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateCourseRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	course, err := h.Service.Create(c.UserContext(), actor, req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Course berhasil dibuat", dto.FromModel(course))
}

// PATCH /api/a/courses/:id
func (h *CourseController) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := courseIDParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCourseRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	course, err := h.Service.Update(c.UserContext(), actor, id, req)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Course diperbarui", dto.FromModel(course))
}

// PATCH /api/a/courses/:id/publish
func (h *CourseController) Publish(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := courseIDParam(c)
	if err != nil {
		return err
	}
	var req dto.PublishRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	course, err := h.Service.SetPublished(c.UserContext(), actor, id, req.Published)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Status publish diperbarui", dto.FromModel(course))
}

// POST /api/a/courses/:id/thumbnail (multipart: thumbnail)
func (h *CourseController) UploadThumbnail(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := courseIDParam(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("thumbnail")
	if err != nil {
		return apperror.ValidationMsg("thumbnail", "file thumbnail wajib diisi")
	}
	course, err := h.Service.UploadThumbnail(c.UserContext(), actor, id, fh)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Thumbnail diperbarui", dto.FromModel(course))
}
