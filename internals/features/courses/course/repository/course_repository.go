package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/courses/course/dto"
	"kursusku_backend/internals/features/courses/course/model"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(ctx context.Context, c *model.CourseModel) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CourseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CourseModel, error) {
	var c model.CourseModel
	if err := r.DB.WithContext(ctx).First(&c, "course_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) FindPublishedBySlug(ctx context.Context, slug string) (*model.CourseModel, error) {
	var c model.CourseModel
	if err := r.DB.WithContext(ctx).
		Where("LOWER(course_slug) = LOWER(?) AND course_is_published = ?", slug, true).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB.WithContext(ctx).
		Model(&model.CourseModel{}).
		Where("course_id = ?", id).
		Updates(updates).Error
}

// ListPublished: katalog publik, terbaru dulu.
func (r *CourseRepository) ListPublished(ctx context.Context, q dto.ListQuery) ([]model.CourseModel, int64, error) {
	base := r.DB.WithContext(ctx).
		Model(&model.CourseModel{}).
		Where("course_is_published = ?", true)
	if s := q.Search(); s != "" {
		base = base.Where("LOWER(course_title) LIKE LOWER(?)", "%"+s+"%")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.CourseModel
	err := base.
		Order("course_created_at DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&rows).Error
	return rows, total, err
}

// ListByInstructor: semua course milik instructor (termasuk draft).
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]model.CourseModel, error) {
	var rows []model.CourseModel
	err := r.DB.WithContext(ctx).
		Where("course_instructor_id = ?", instructorID).
		Order("course_created_at DESC").
		Find(&rows).Error
	return rows, err
}
