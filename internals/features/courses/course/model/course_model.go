package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseModel struct {
	CourseID           uuid.UUID  `gorm:"column:course_id;type:uuid;primaryKey" json:"course_id"`
	CourseTitle        string     `gorm:"column:course_title;size:200;not null" json:"course_title"`
	CourseSlug         string     `gorm:"column:course_slug;size:160;not null;uniqueIndex" json:"course_slug"`
	CourseDescription  *string    `gorm:"column:course_description" json:"course_description,omitempty"`
	CoursePriceIDR     int64      `gorm:"column:course_price_idr;not null;default:0;check:course_price_idr >= 0" json:"course_price_idr"`
	CourseThumbnailURL *string    `gorm:"column:course_thumbnail_url" json:"course_thumbnail_url,omitempty"`
	CourseInstructorID *uuid.UUID `gorm:"column:course_instructor_id;type:uuid;index" json:"course_instructor_id,omitempty"`
	CourseIsPublished  bool       `gorm:"column:course_is_published;not null;default:false;index" json:"course_is_published"`

	CreatedAt time.Time      `gorm:"column:course_created_at;autoCreateTime" json:"course_created_at"`
	UpdatedAt time.Time      `gorm:"column:course_updated_at;autoUpdateTime" json:"course_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:course_deleted_at;index" json:"-"`
}

func (CourseModel) TableName() string { return "courses" }

func (c *CourseModel) BeforeCreate(tx *gorm.DB) error {
	if c.CourseID == uuid.Nil {
		c.CourseID = uuid.New()
	}
	return nil
}

func (c *CourseModel) IsFree() bool { return c.CoursePriceIDR == 0 }
