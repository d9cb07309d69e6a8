package model

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CertificateStatus string

const (
	CertificateAvailable CertificateStatus = "available"
	CertificateAssigned  CertificateStatus = "assigned"
	CertificateAccessed  CertificateStatus = "accessed"
)

var (
	ErrNotAvailable = errors.New("Certificate is not available for assignment")
	ErrNotAssigned  = errors.New("Certificate must be assigned before it can be accessed")
)

var serialPattern = regexp.MustCompile(`^CERT-[0-9]+-[A-Za-z0-9]+$`)

// ValidSerial: CERT-<digits>-<alphanumeric>
func ValidSerial(s string) bool { return serialPattern.MatchString(s) }

type CertificateModel struct {
	CertificateID           uuid.UUID  `gorm:"column:certificate_id;type:uuid;primaryKey" json:"certificate_id"`
	CertificateSerialNumber string     `gorm:"column:certificate_serial_number;size:64;not null;uniqueIndex" json:"certificate_serial_number"`
	CertificateCourseID     uuid.UUID  `gorm:"column:certificate_course_id;type:uuid;not null;index:idx_cert_pool,priority:1" json:"certificate_course_id"`
	CertificateBatchID      *uuid.UUID `gorm:"column:certificate_batch_id;type:uuid;index" json:"certificate_batch_id,omitempty"`
	CertificateSequence     int        `gorm:"column:certificate_sequence_number;not null;index:idx_cert_pool,priority:3" json:"certificate_sequence_number"`
	// satu sertifikat per enrollment; NULL selama masih available
	CertificateEnrollmentID *uuid.UUID        `gorm:"column:certificate_enrollment_id;type:uuid;uniqueIndex" json:"certificate_enrollment_id,omitempty"`
	CertificateAssignedTo   *uuid.UUID        `gorm:"column:certificate_assigned_to;type:uuid;index" json:"certificate_assigned_to,omitempty"`
	CertificateFileLink     *string           `gorm:"column:certificate_google_drive_link" json:"google_drive_link,omitempty"`
	CertificateStatus       CertificateStatus `gorm:"column:certificate_status;type:varchar(20);not null;default:'available';index:idx_cert_pool,priority:2" json:"certificate_status"`

	CertificateIssueDate    *time.Time `gorm:"column:certificate_issue_date" json:"certificate_issue_date,omitempty"`
	CertificateAssignedDate *time.Time `gorm:"column:certificate_assigned_date" json:"certificate_assigned_date,omitempty"`
	CertificateAccessedDate *time.Time `gorm:"column:certificate_accessed_date" json:"certificate_accessed_date,omitempty"`

	CreatedAt time.Time `gorm:"column:certificate_created_at;autoCreateTime" json:"certificate_created_at"`
	UpdatedAt time.Time `gorm:"column:certificate_updated_at;autoUpdateTime" json:"certificate_updated_at"`
}

func (CertificateModel) TableName() string { return "certificates" }

func (c *CertificateModel) BeforeCreate(tx *gorm.DB) error {
	if c.CertificateID == uuid.Nil {
		c.CertificateID = uuid.New()
	}
	if c.CertificateStatus == "" {
		c.CertificateStatus = CertificateAvailable
	}
	return nil
}

// CanAssign: available -> assigned
func (c *CertificateModel) CanAssign() error {
	if c.CertificateStatus != CertificateAvailable {
		return ErrNotAvailable
	}
	return nil
}

// CanMarkAccessed: assigned -> accessed
func (c *CertificateModel) CanMarkAccessed() error {
	if c.CertificateStatus != CertificateAssigned {
		return ErrNotAssigned
	}
	return nil
}

// IsVerifiable: hanya sertifikat yang sudah dimiliki student yang bisa diverifikasi publik.
func (c *CertificateModel) IsVerifiable() bool {
	return c.CertificateStatus == CertificateAssigned || c.CertificateStatus == CertificateAccessed
}
