package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kursusku_backend/internals/features/courses/enrollment/dto"
	svc "kursusku_backend/internals/features/courses/enrollment/service"
	helper "kursusku_backend/internals/helpers"
	"kursusku_backend/internals/helpers/apperror"
	authMw "kursusku_backend/internals/middlewares/auth"
)

type EnrollmentController struct {
	Service *svc.EnrollmentService
}

func NewEnrollmentController(s *svc.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{Service: s}
}

func enrollmentIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, apperror.ValidationMsg("id", "enrollment id tidak valid")
	}
	return id, nil
}

// POST /api/u/enrollments
func (h *EnrollmentController) Enroll(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	var req dto.EnrollRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.Service.Enroll(c.UserContext(), userID, req.CourseID)
	if err != nil {
		return err
	}
	if !res.Created {
		return helper.JsonOK(c, "Sudah terdaftar di course ini", res)
	}
	return helper.JsonCreated(c, "Berhasil mendaftar course", res)
}

// GET /api/u/enrollments?status=
func (h *EnrollmentController) ListMine(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	pg := helper.ResolvePaging(c, 20, 100)
	rows, total, err := h.Service.ListMine(c.UserContext(), userID, strings.TrimSpace(c.Query("status")), pg.Offset, pg.Limit)
	if err != nil {
		return err
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

// GET /api/u/enrollments/:id
func (h *EnrollmentController) Get(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := enrollmentIDParam(c)
	if err != nil {
		return err
	}
	e, err := h.Service.Get(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.FromModel(e))
}

// PATCH /api/u/enrollments/:id/progress
func (h *EnrollmentController) UpdateProgress(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := enrollmentIDParam(c)
	if err != nil {
		return err
	}
	var req dto.ProgressRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	e, err := h.Service.UpdateProgress(c.UserContext(), userID, id, *req.Progress)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Progress diperbarui", dto.FromModel(e))
}

// POST /api/u/enrollments/:id/complete
func (h *EnrollmentController) Complete(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := enrollmentIDParam(c)
	if err != nil {
		return err
	}
	res, err := h.Service.Complete(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	msg := "Course selesai, sertifikat diterbitkan"
	if res.CertificatePending {
		msg = "Course selesai, sertifikat sedang disiapkan"
	}
	return helper.JsonOK(c, msg, res)
}
