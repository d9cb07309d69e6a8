package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kursusku_backend/internals/features/certificates/dto"
	svc "kursusku_backend/internals/features/certificates/service"
	helper "kursusku_backend/internals/helpers"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/logger"
	authMw "kursusku_backend/internals/middlewares/auth"
)

type CertificateController struct {
	Service *svc.CertificateService
}

func NewCertificateController(s *svc.CertificateService) *CertificateController {
	return &CertificateController{Service: s}
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, apperror.ValidationMsg(name, name+" tidak valid")
	}
	return id, nil
}

/* ===================== PUBLIC ===================== */

// GET /api/public/certificates/verify/:serial
func (h *CertificateController) Verify(c *fiber.Ctx) error {
	out, err := h.Service.VerifyBySerial(c.UserContext(), c.Params("serial"))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Sertifikat valid", out)
}

/* ===================== USER ===================== */

// GET /api/u/certificates
func (h *CertificateController) Mine(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	list, err := h.Service.GetMyCertificates(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", list)
}

// GET /api/u/certificates/:id/download
func (h *CertificateController) Download(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	certID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	out, err := h.Service.DownloadCertificate(c.UserContext(), certID, userID)
	if err != nil {
		return err
	}
	logger.Info(c).Str("certificate_id", certID.String()).Msg("📥 sertifikat diunduh")
	return helper.JsonOK(c, "ok", out)
}

/* ===================== ADMIN ===================== */

// POST /api/a/certificates/batches
func (h *CertificateController) CreateBatch(c *fiber.Ctx) error {
	var req dto.CreateBatchRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	var createdBy *uuid.UUID
	if id, err := authMw.GetUserID(c); err == nil {
		createdBy = &id
	}
	out, err := h.Service.CreateBatch(c.UserContext(), req.CourseID, req.BatchName, req.StorageFolderRef, req.Count, createdBy)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Batch sertifikat berhasil dibuat", out)
}

// GET /api/a/certificates/batches?course_id=
func (h *CertificateController) ListBatches(c *fiber.Ctx) error {
	var courseID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("course_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperror.ValidationMsg("course_id", "course_id tidak valid")
		}
		courseID = &id
	}
	list, err := h.Service.ListBatches(c.UserContext(), courseID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", list)
}

// GET /api/a/certificates/batches/:id
func (h *CertificateController) BatchCertificates(c *fiber.Ctx) error {
	batchID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	list, err := h.Service.ListBatchCertificates(c.UserContext(), batchID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", list)
}

// GET /api/a/certificates/stats/:course_id
func (h *CertificateController) Stats(c *fiber.Ctx) error {
	courseID, err := parseUUIDParam(c, "course_id")
	if err != nil {
		return err
	}
	st, err := h.Service.GetBatchStats(c.UserContext(), courseID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", st)
}

// POST /api/a/certificates/:id/assign
func (h *CertificateController) Assign(c *fiber.Ctx) error {
	certID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.AssignCertificateRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	cert, err := h.Service.AssignCertificate(c.UserContext(), certID, req.EnrollmentID, req.StudentID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Sertifikat berhasil di-assign", dto.FromModel(cert, ""))
}

// PATCH /api/a/certificates/:id/link
func (h *CertificateController) UpdateLink(c *fiber.Ctx) error {
	certID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateFileLinkRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	cert, err := h.Service.UpdateFileLink(c.UserContext(), certID, req.GoogleDriveLink)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Link sertifikat diperbarui", dto.FromModel(cert, ""))
}
