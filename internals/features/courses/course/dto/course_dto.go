package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"kursusku_backend/internals/features/courses/course/model"
)

type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	PriceIDR    int64   `json:"price_idr" validate:"min=0"`
	Slug        string  `json:"slug" validate:"omitempty,max=160"`
	Publish     bool    `json:"publish"`
}

// UpdateCourseRequest: field nil = tidak diubah.
type UpdateCourseRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	PriceIDR    *int64  `json:"price_idr" validate:"omitempty,min=0"`
	Slug        *string `json:"slug" validate:"omitempty,max=160"`
}

type PublishRequest struct {
	Published bool `json:"published"`
}

type ListQuery struct {
	Q      string
	Offset int
	Limit  int
}

func (q ListQuery) Search() string { return strings.TrimSpace(q.Q) }

type CourseResponse struct {
	ID           uuid.UUID  `json:"course_id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Description  *string    `json:"description,omitempty"`
	PriceIDR     int64      `json:"price_idr"`
	IsFree       bool       `json:"is_free"`
	ThumbnailURL *string    `json:"thumbnail_url,omitempty"`
	InstructorID *uuid.UUID `json:"instructor_id,omitempty"`
	IsPublished  bool       `json:"is_published"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func FromModel(m *model.CourseModel) CourseResponse {
	return CourseResponse{
		ID:           m.CourseID,
		Title:        m.CourseTitle,
		Slug:         m.CourseSlug,
		Description:  m.CourseDescription,
		PriceIDR:     m.CoursePriceIDR,
		IsFree:       m.IsFree(),
		ThumbnailURL: m.CourseThumbnailURL,
		InstructorID: m.CourseInstructorID,
		IsPublished:  m.CourseIsPublished,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func FromModels(rows []model.CourseModel) []CourseResponse {
	out := make([]CourseResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
