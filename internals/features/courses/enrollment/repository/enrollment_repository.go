package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	courseModel "kursusku_backend/internals/features/courses/course/model"
	"kursusku_backend/internals/features/courses/enrollment/model"
	userModel "kursusku_backend/internals/features/users/user/model"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(ctx context.Context, e *model.EnrollmentModel) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *EnrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.EnrollmentModel, error) {
	var e model.EnrollmentModel
	if err := r.DB.WithContext(ctx).First(&e, "enrollment_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) FindByUserCourse(ctx context.Context, userID, courseID uuid.UUID) (*model.EnrollmentModel, error) {
	var e model.EnrollmentModel
	if err := r.DB.WithContext(ctx).
		Where("enrollment_user_id = ? AND enrollment_course_id = ?", userID, courseID).
		First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) FindCourse(ctx context.Context, courseID uuid.UUID) (*courseModel.CourseModel, error) {
	var c courseModel.CourseModel
	if err := r.DB.WithContext(ctx).First(&c, "course_id = ?", courseID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *EnrollmentRepository) FindUser(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	var u userModel.UserModel
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// TransitionStatus: update kondisional dari status `from`. false = status sudah berubah.
func (r *EnrollmentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from model.EnrollmentStatus, updates map[string]any) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&model.EnrollmentModel{}).
		Where("enrollment_id = ? AND enrollment_status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetProgress hanya berlaku selama enrollment active.
func (r *EnrollmentRepository) SetProgress(ctx context.Context, id uuid.UUID, progress int) (bool, error) {
	return r.TransitionStatus(ctx, id, model.EnrollmentActive, map[string]any{
		"enrollment_progress": progress,
	})
}

func (r *EnrollmentRepository) AttachPayment(ctx context.Context, id, paymentID uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Model(&model.EnrollmentModel{}).
		Where("enrollment_id = ?", id).
		Update("enrollment_payment_id", paymentID).Error
}

func (r *EnrollmentRepository) Complete(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return r.TransitionStatus(ctx, id, model.EnrollmentActive, map[string]any{
		"enrollment_status":       model.EnrollmentCompleted,
		"enrollment_progress":     100,
		"enrollment_completed_at": now,
	})
}

// EnrollmentWithCourse: baris list "kursus saya".
type EnrollmentWithCourse struct {
	model.EnrollmentModel
	CourseTitle string `gorm:"column:course_title"`
	CourseSlug  string `gorm:"column:course_slug"`
}

func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID uuid.UUID, status string, offset, limit int) ([]EnrollmentWithCourse, int64, error) {
	q := r.DB.WithContext(ctx).
		Table("enrollments AS e").
		Joins("JOIN courses c ON c.course_id = e.enrollment_course_id").
		Where("e.enrollment_user_id = ?", userID)
	if status != "" {
		q = q.Where("e.enrollment_status = ?", status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []EnrollmentWithCourse
	err := q.Select("e.*, c.course_title, c.course_slug").
		Order("e.enrollment_enrolled_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	return rows, total, err
}
