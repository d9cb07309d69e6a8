package dto

import (
	"time"

	"github.com/google/uuid"

	"kursusku_backend/internals/features/courses/enrollment/model"
)

type EnrollRequest struct {
	CourseID uuid.UUID `json:"course_id" validate:"required"`
}

type ProgressRequest struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}

type EnrollmentResponse struct {
	ID          uuid.UUID              `json:"enrollment_id"`
	UserID      uuid.UUID              `json:"user_id"`
	CourseID    uuid.UUID              `json:"course_id"`
	CourseTitle string                 `json:"course_title,omitempty"`
	CourseSlug  string                 `json:"course_slug,omitempty"`
	Status      model.EnrollmentStatus `json:"status"`
	Progress    int                    `json:"progress"`
	PaymentID   *uuid.UUID             `json:"payment_id,omitempty"`
	EnrolledAt  time.Time              `json:"enrolled_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

func FromModel(m *model.EnrollmentModel) EnrollmentResponse {
	return EnrollmentResponse{
		ID:          m.EnrollmentID,
		UserID:      m.EnrollmentUserID,
		CourseID:    m.EnrollmentCourseID,
		Status:      m.EnrollmentStatus,
		Progress:    m.EnrollmentProgress,
		PaymentID:   m.EnrollmentPaymentID,
		EnrolledAt:  m.EnrollmentEnrolledAt,
		CompletedAt: m.EnrollmentCompletedAt,
	}
}

// EnrollResult: Created=false berarti enrollment lama dikembalikan.
type EnrollResult struct {
	Enrollment      EnrollmentResponse `json:"enrollment"`
	Created         bool               `json:"created"`
	PaymentRequired bool               `json:"payment_required"`
}

type CompleteResult struct {
	Enrollment EnrollmentResponse `json:"enrollment"`
	// nil selama pool sertifikat course kosong; panggil complete lagi untuk retry
	CertificateID      *uuid.UUID `json:"certificate_id,omitempty"`
	CertificateSerial  string     `json:"certificate_serial,omitempty"`
	CertificatePending bool       `json:"certificate_pending"`
}
