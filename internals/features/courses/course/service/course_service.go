package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/courses/course/dto"
	"kursusku_backend/internals/features/courses/course/model"
	"kursusku_backend/internals/features/courses/course/repository"
	helper "kursusku_backend/internals/helpers"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/media"
)

const thumbnailFolder = "kursusku/courses"

// Actor: siapa yang memanggil (dari token).
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

type CourseService struct {
	repo     *repository.CourseRepository
	uploader media.Uploader
}

func NewCourseService(repo *repository.CourseRepository, uploader media.Uploader) *CourseService {
	return &CourseService{repo: repo, uploader: uploader}
}

func (s *CourseService) slugOpts(exclude *uuid.UUID) helper.SlugOptions {
	o := helper.SlugOptions{
		Table:            "courses",
		Column:           "course_slug",
		SoftDeleteColumn: "course_deleted_at",
		MaxLen:           160,
	}
	if exclude != nil {
		o.ExcludeColumn, o.ExcludeValue = "course_id", *exclude
	}
	return o
}

func (s *CourseService) Create(ctx context.Context, actor Actor, req dto.CreateCourseRequest) (*model.CourseModel, error) {
	base := req.Slug
	if strings.TrimSpace(base) == "" {
		base = req.Title
	}
	slug, err := helper.UniqueSlug(ctx, s.repo.DB, s.slugOpts(nil), base)
	if err != nil {
		return nil, apperror.Internal("gagal membuat slug", err)
	}

	instructor := actor.UserID
	c := &model.CourseModel{
		CourseTitle:        strings.TrimSpace(req.Title),
		CourseSlug:         slug,
		CourseDescription:  req.Description,
		CoursePriceIDR:     req.PriceIDR,
		CourseInstructorID: &instructor,
		CourseIsPublished:  req.Publish,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("slug course sudah dipakai")
		}
		return nil, apperror.Internal("gagal membuat course", err)
	}
	log.Info().Str("course_id", c.CourseID.String()).Str("slug", slug).Msg("📚 course dibuat")
	return c, nil
}

// owned: instructor pemilik atau admin.
func (s *CourseService) owned(ctx context.Context, actor Actor, id uuid.UUID) (*model.CourseModel, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("course tidak ditemukan")
		}
		return nil, apperror.Internal("gagal memuat course", err)
	}
	if actor.IsAdmin {
		return c, nil
	}
	if c.CourseInstructorID == nil || *c.CourseInstructorID != actor.UserID {
		return nil, apperror.Forbidden("bukan course milik anda")
	}
	return c, nil
}

func (s *CourseService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateCourseRequest) (*model.CourseModel, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["course_title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["course_description"] = *req.Description
	}
	if req.PriceIDR != nil {
		if *req.PriceIDR < 0 {
			return nil, apperror.ValidationMsg("price_idr", "price must be >= 0")
		}
		updates["course_price_idr"] = *req.PriceIDR
	}
	if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
		slug, err := helper.UniqueSlug(ctx, s.repo.DB, s.slugOpts(&id), *req.Slug)
		if err != nil {
			return nil, apperror.Internal("gagal membuat slug", err)
		}
		updates["course_slug"] = slug
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperror.Conflict("slug course sudah dipakai")
			}
			return nil, apperror.Internal("gagal update course", err)
		}
	}
	return s.reload(ctx, id)
}

func (s *CourseService) SetPublished(ctx context.Context, actor Actor, id uuid.UUID, published bool) (*model.CourseModel, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"course_is_published": published}); err != nil {
		return nil, apperror.Internal("gagal update course", err)
	}
	return s.reload(ctx, id)
}

func (s *CourseService) UploadThumbnail(ctx context.Context, actor Actor, id uuid.UUID, fh *multipart.FileHeader) (*model.CourseModel, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, apperror.Internal("media uploader belum dikonfigurasi", nil)
	}
	url, err := s.uploader.UploadImage(ctx, thumbnailFolder, fh)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"course_thumbnail_url": url}); err != nil {
		return nil, apperror.Internal("gagal menyimpan thumbnail", err)
	}
	log.Info().Str("course_id", id.String()).Str("url", url).Msg("🖼️ thumbnail course diperbarui")
	return s.reload(ctx, id)
}

func (s *CourseService) ListPublished(ctx context.Context, q dto.ListQuery) ([]model.CourseModel, int64, error) {
	rows, total, err := s.repo.ListPublished(ctx, q)
	if err != nil {
		return nil, 0, apperror.Internal("gagal memuat course", err)
	}
	return rows, total, nil
}

func (s *CourseService) ListMine(ctx context.Context, instructorID uuid.UUID) ([]model.CourseModel, error) {
	rows, err := s.repo.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, apperror.Internal("gagal memuat course", err)
	}
	return rows, nil
}

func (s *CourseService) GetBySlug(ctx context.Context, slug string) (*model.CourseModel, error) {
	c, err := s.repo.FindPublishedBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("course tidak ditemukan")
		}
		return nil, apperror.Internal("gagal memuat course", err)
	}
	return c, nil
}

func (s *CourseService) reload(ctx context.Context, id uuid.UUID) (*model.CourseModel, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("gagal memuat course", err)
	}
	return c, nil
}
