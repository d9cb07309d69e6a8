package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentPendingPayment EnrollmentStatus = "pending_payment"
	EnrollmentActive         EnrollmentStatus = "active"
	EnrollmentCompleted      EnrollmentStatus = "completed"
	EnrollmentCancelled      EnrollmentStatus = "cancelled"
)

type EnrollmentModel struct {
	EnrollmentID       uuid.UUID        `gorm:"column:enrollment_id;type:uuid;primaryKey" json:"enrollment_id"`
	EnrollmentUserID   uuid.UUID        `gorm:"column:enrollment_user_id;type:uuid;not null;uniqueIndex:uq_enrollment_user_course" json:"enrollment_user_id"`
	EnrollmentCourseID uuid.UUID        `gorm:"column:enrollment_course_id;type:uuid;not null;uniqueIndex:uq_enrollment_user_course;index" json:"enrollment_course_id"`
	EnrollmentStatus   EnrollmentStatus `gorm:"column:enrollment_status;type:varchar(20);not null;default:'pending_payment'" json:"enrollment_status"`
	EnrollmentProgress int              `gorm:"column:enrollment_progress;not null;default:0;check:enrollment_progress BETWEEN 0 AND 100" json:"enrollment_progress"`
	// payment yang mengaktifkan enrollment
	EnrollmentPaymentID   *uuid.UUID `gorm:"column:enrollment_payment_id;type:uuid" json:"enrollment_payment_id,omitempty"`
	EnrollmentEnrolledAt  time.Time  `gorm:"column:enrollment_enrolled_at;not null" json:"enrollment_enrolled_at"`
	EnrollmentCompletedAt *time.Time `gorm:"column:enrollment_completed_at" json:"enrollment_completed_at,omitempty"`

	CreatedAt time.Time `gorm:"column:enrollment_created_at;autoCreateTime" json:"enrollment_created_at"`
	UpdatedAt time.Time `gorm:"column:enrollment_updated_at;autoUpdateTime" json:"enrollment_updated_at"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }

func (e *EnrollmentModel) BeforeCreate(tx *gorm.DB) error {
	if e.EnrollmentID == uuid.Nil {
		e.EnrollmentID = uuid.New()
	}
	if e.EnrollmentEnrolledAt.IsZero() {
		e.EnrollmentEnrolledAt = time.Now().UTC()
	}
	return nil
}

func (e *EnrollmentModel) CanUpdateProgress() error {
	if e.EnrollmentStatus != EnrollmentActive {
		return fmt.Errorf("progress hanya bisa diubah saat enrollment active (status: %s)", e.EnrollmentStatus)
	}
	return nil
}

func (e *EnrollmentModel) CanComplete() error {
	if e.EnrollmentStatus != EnrollmentActive {
		return fmt.Errorf("enrollment tidak bisa diselesaikan dari status %s", e.EnrollmentStatus)
	}
	return nil
}
