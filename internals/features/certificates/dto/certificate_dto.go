package dto

import (
	"time"

	"github.com/google/uuid"

	"kursusku_backend/internals/features/certificates/model"
)

/* ===================== REQUEST ===================== */

type CreateBatchRequest struct {
	CourseID         uuid.UUID `json:"course_id" validate:"required"`
	BatchName        string    `json:"batch_name" validate:"required,max=120"`
	StorageFolderRef string    `json:"storage_folder_ref" validate:"omitempty,max=500"`
	Count            int       `json:"count" validate:"required,min=1,max=5000"`
}

type AssignCertificateRequest struct {
	EnrollmentID uuid.UUID `json:"enrollment_id" validate:"required"`
	StudentID    uuid.UUID `json:"student_id" validate:"required"`
}

type UpdateFileLinkRequest struct {
	GoogleDriveLink string `json:"google_drive_link" validate:"required,url"`
}

/* ===================== RESPONSE ===================== */

// VerifyResponse: payload publik, tidak membocorkan id internal.
type VerifyResponse struct {
	SerialNumber    string     `json:"serial_number"`
	CourseName      string     `json:"course_name"`
	UserName        string     `json:"user_name"`
	IssueDate       *time.Time `json:"issue_date,omitempty"`
	GoogleDriveLink *string    `json:"google_drive_link,omitempty"`
}

type CertificateResponse struct {
	CertificateID   uuid.UUID               `json:"certificate_id"`
	SerialNumber    string                  `json:"serial_number"`
	CourseID        uuid.UUID               `json:"course_id"`
	CourseName      string                  `json:"course_name,omitempty"`
	BatchID         *uuid.UUID              `json:"batch_id,omitempty"`
	SequenceNumber  int                     `json:"sequence_number"`
	EnrollmentID    *uuid.UUID              `json:"enrollment_id,omitempty"`
	AssignedTo      *uuid.UUID              `json:"assigned_to,omitempty"`
	Status          model.CertificateStatus `json:"status"`
	GoogleDriveLink *string                 `json:"google_drive_link,omitempty"`
	IssueDate       *time.Time              `json:"issue_date,omitempty"`
	AssignedDate    *time.Time              `json:"assigned_date,omitempty"`
	AccessedDate    *time.Time              `json:"accessed_date,omitempty"`
}

func FromModel(m *model.CertificateModel, courseName string) CertificateResponse {
	return CertificateResponse{
		CertificateID:   m.CertificateID,
		SerialNumber:    m.CertificateSerialNumber,
		CourseID:        m.CertificateCourseID,
		CourseName:      courseName,
		BatchID:         m.CertificateBatchID,
		SequenceNumber:  m.CertificateSequence,
		EnrollmentID:    m.CertificateEnrollmentID,
		AssignedTo:      m.CertificateAssignedTo,
		Status:          m.CertificateStatus,
		GoogleDriveLink: m.CertificateFileLink,
		IssueDate:       m.CertificateIssueDate,
		AssignedDate:    m.CertificateAssignedDate,
		AccessedDate:    m.CertificateAccessedDate,
	}
}

func FromModels(rows []model.CertificateModel) []CertificateResponse {
	out := make([]CertificateResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i], ""))
	}
	return out
}

type BatchResponse struct {
	Batch   model.CertificateBatchModel `json:"batch"`
	Created int                         `json:"created"`
}

type BatchStats struct {
	CourseID  uuid.UUID `json:"course_id"`
	Total     int64     `json:"total"`
	Available int64     `json:"available"`
	Assigned  int64     `json:"assigned"`
	Accessed  int64     `json:"accessed"`
}

type DownloadResponse struct {
	CertificateID   uuid.UUID               `json:"certificate_id"`
	SerialNumber    string                  `json:"serial_number"`
	Status          model.CertificateStatus `json:"status"`
	GoogleDriveLink *string                 `json:"google_drive_link,omitempty"`
}
