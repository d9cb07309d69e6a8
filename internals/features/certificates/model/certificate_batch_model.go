package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CertificateBatchModel: pool sertifikat yang dibuat sekaligus untuk satu course.
type CertificateBatchModel struct {
	BatchID        uuid.UUID  `gorm:"column:certificate_batch_id;type:uuid;primaryKey" json:"certificate_batch_id"`
	BatchCourseID  uuid.UUID  `gorm:"column:certificate_batch_course_id;type:uuid;not null;index" json:"certificate_batch_course_id"`
	BatchName      string     `gorm:"column:certificate_batch_name;size:120;not null" json:"certificate_batch_name"`
	BatchFolderRef *string    `gorm:"column:certificate_batch_folder_ref" json:"certificate_batch_folder_ref,omitempty"`
	BatchTotal     int        `gorm:"column:certificate_batch_total;not null" json:"certificate_batch_total"`
	BatchCreatedBy *uuid.UUID `gorm:"column:certificate_batch_created_by;type:uuid" json:"certificate_batch_created_by,omitempty"`
	BatchCreatedAt time.Time  `gorm:"column:certificate_batch_created_at;not null;index" json:"certificate_batch_created_at"`
	BatchUpdatedAt time.Time  `gorm:"column:certificate_batch_updated_at;autoUpdateTime" json:"certificate_batch_updated_at"`
}

func (CertificateBatchModel) TableName() string { return "certificate_batches" }

func (b *CertificateBatchModel) BeforeCreate(tx *gorm.DB) error {
	if b.BatchID == uuid.Nil {
		b.BatchID = uuid.New()
	}
	if b.BatchCreatedAt.IsZero() {
		b.BatchCreatedAt = time.Now().UTC()
	}
	return nil
}
