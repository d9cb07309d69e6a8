package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kursusku_backend/internals/features/certificates/model"
	"kursusku_backend/internals/features/certificates/repository"
	svc "kursusku_backend/internals/features/certificates/service"
	courseModel "kursusku_backend/internals/features/courses/course/model"
	enrollmentModel "kursusku_backend/internals/features/courses/enrollment/model"
	userModel "kursusku_backend/internals/features/users/user/model"
	"kursusku_backend/internals/helpers/testdb"
	"kursusku_backend/internals/middlewares"
	authMw "kursusku_backend/internals/middlewares/auth"
)

type env struct {
	app     *fiber.App
	service *svc.CertificateService
	user    userModel.UserModel
	course  courseModel.CourseModel
	enroll  enrollmentModel.EnrollmentModel
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testdb.New(t,
		&userModel.UserModel{},
		&courseModel.CourseModel{},
		&enrollmentModel.EnrollmentModel{},
		&model.CertificateBatchModel{},
		&model.CertificateModel{},
	)
	e := &env{}
	e.user = userModel.UserModel{UserName: "nina", FullName: "Nina Lestari", Email: "nina@example.com"}
	require.NoError(t, db.Create(&e.user).Error)
	e.course = courseModel.CourseModel{CourseTitle: "Fiber Lanjutan", CourseSlug: "fiber-lanjutan"}
	require.NoError(t, db.Create(&e.course).Error)
	e.enroll = enrollmentModel.EnrollmentModel{
		EnrollmentUserID:   e.user.ID,
		EnrollmentCourseID: e.course.CourseID,
		EnrollmentStatus:   enrollmentModel.EnrollmentActive,
	}
	require.NoError(t, db.Create(&e.enroll).Error)

	e.service = svc.NewCertificateService(repository.NewCertificateRepository(db))
	ctl := NewCertificateController(e.service)

	e.app = fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler(false)})
	e.app.Get("/api/public/certificates/verify/:serial", ctl.Verify)
	u := e.app.Group("/api/u", func(c *fiber.Ctx) error {
		c.Locals(authMw.LocUserID, c.Get("X-Test-User"))
		c.Locals(authMw.LocUserRole, "user")
		return c.Next()
	})
	u.Get("/certificates", ctl.Mine)
	u.Get("/certificates/:id/download", ctl.Download)
	return e
}

func get(t *testing.T, app *fiber.App, path, userID string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestVerifyEndpoint(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	code, _ := get(t, e.app, "/api/public/certificates/verify/CERT-20260101-ABCDEF120001", "")
	assert.Equal(t, http.StatusNotFound, code)

	_, err := e.service.CreateBatch(ctx, e.course.CourseID, "b1", "", 1, nil)
	require.NoError(t, err)
	cert, err := e.service.AssignToStudent(ctx, e.enroll.EnrollmentID, e.user.ID, e.course.CourseID)
	require.NoError(t, err)

	code, body := get(t, e.app, "/api/public/certificates/verify/"+cert.CertificateSerialNumber, "")
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Fiber Lanjutan", data["course_name"])
	assert.Equal(t, "Nina Lestari", data["user_name"])
}

func TestDownloadEndpoint_Ownership(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.service.CreateBatch(ctx, e.course.CourseID, "b1", "", 1, nil)
	require.NoError(t, err)
	cert, err := e.service.AssignToStudent(ctx, e.enroll.EnrollmentID, e.user.ID, e.course.CourseID)
	require.NoError(t, err)
	_, err = e.service.UpdateFileLink(ctx, cert.CertificateID, "https://drive.google.com/file/d/nina")
	require.NoError(t, err)

	path := "/api/u/certificates/" + cert.CertificateID.String() + "/download"
	code, _ := get(t, e.app, path, "5b1f1f3e-9c1a-4f6e-8a10-0d4c3b2a1f00")
	assert.Equal(t, http.StatusNotFound, code)

	code, body := get(t, e.app, path, e.user.ID.String())
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, string(model.CertificateAccessed), data["status"])

	code, _ = get(t, e.app, "/api/u/certificates/not-a-uuid/download", e.user.ID.String())
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, body = get(t, e.app, "/api/u/certificates", e.user.ID.String())
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)
}
