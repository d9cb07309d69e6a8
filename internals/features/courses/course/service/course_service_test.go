package service

import (
	"context"
	"mime/multipart"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kursusku_backend/internals/features/courses/course/dto"
	"kursusku_backend/internals/features/courses/course/model"
	"kursusku_backend/internals/features/courses/course/repository"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/testdb"
)

type fakeUploader struct {
	folder string
	err    error
}

func (u *fakeUploader) UploadImage(_ context.Context, folder string, _ *multipart.FileHeader) (string, error) {
	u.folder = folder
	if u.err != nil {
		return "", u.err
	}
	return "https://cdn.example.com/" + folder + "/thumb.webp", nil
}

func newTestService(t *testing.T) (*CourseService, *fakeUploader) {
	t.Helper()
	db := testdb.New(t, &model.CourseModel{})
	up := &fakeUploader{}
	return NewCourseService(repository.NewCourseRepository(db), up), up
}

func TestCreate_UniqueSlug(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	actor := Actor{UserID: uuid.New()}

	a, err := s.Create(ctx, actor, dto.CreateCourseRequest{Title: "Belajar Golang", PriceIDR: 100000})
	require.NoError(t, err)
	assert.Equal(t, "belajar-golang", a.CourseSlug)
	assert.Equal(t, actor.UserID, *a.CourseInstructorID)
	assert.False(t, a.CourseIsPublished)

	b, err := s.Create(ctx, actor, dto.CreateCourseRequest{Title: "Belajar  GOLANG!"})
	require.NoError(t, err)
	assert.Equal(t, "belajar-golang-2", b.CourseSlug)
	assert.True(t, b.IsFree())
}

func TestUpdate_OwnershipAndSlug(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	owner := Actor{UserID: uuid.New()}

	c, err := s.Create(ctx, owner, dto.CreateCourseRequest{Title: "Docker Dasar", PriceIDR: 50000})
	require.NoError(t, err)

	title := "Docker Menengah"
	_, err = s.Update(ctx, Actor{UserID: uuid.New()}, c.CourseID, dto.UpdateCourseRequest{Title: &title})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	slug := "docker-dasar"
	price := int64(75000)
	updated, err := s.Update(ctx, owner, c.CourseID, dto.UpdateCourseRequest{Title: &title, Slug: &slug, PriceIDR: &price})
	require.NoError(t, err)
	assert.Equal(t, "Docker Menengah", updated.CourseTitle)
	assert.Equal(t, "docker-dasar", updated.CourseSlug, "slug sendiri tidak dianggap bentrok")
	assert.Equal(t, int64(75000), updated.CoursePriceIDR)

	// admin boleh mengubah course siapa pun
	_, err = s.Update(ctx, Actor{UserID: uuid.New(), IsAdmin: true}, c.CourseID, dto.UpdateCourseRequest{Title: &title})
	require.NoError(t, err)

	_, err = s.Update(ctx, owner, uuid.New(), dto.UpdateCourseRequest{Title: &title})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestPublishAndCatalog(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	owner := Actor{UserID: uuid.New()}

	draft, err := s.Create(ctx, owner, dto.CreateCourseRequest{Title: "Kubernetes Pemula"})
	require.NoError(t, err)
	_, err = s.Create(ctx, owner, dto.CreateCourseRequest{Title: "Redis Praktis", Publish: true})
	require.NoError(t, err)

	_, err = s.GetBySlug(ctx, draft.CourseSlug)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	rows, total, err := s.ListPublished(ctx, dto.ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)

	_, err = s.SetPublished(ctx, owner, draft.CourseID, true)
	require.NoError(t, err)

	got, err := s.GetBySlug(ctx, "KUBERNETES-pemula")
	require.NoError(t, err)
	assert.Equal(t, draft.CourseID, got.CourseID)

	rows, total, err = s.ListPublished(ctx, dto.ListQuery{Q: "redis", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Redis Praktis", rows[0].CourseTitle)

	mine, err := s.ListMine(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestUploadThumbnail(t *testing.T) {
	s, up := newTestService(t)
	ctx := context.Background()
	owner := Actor{UserID: uuid.New()}
	c, err := s.Create(ctx, owner, dto.CreateCourseRequest{Title: "Go Concurrency"})
	require.NoError(t, err)

	_, err = s.UploadThumbnail(ctx, Actor{UserID: uuid.New()}, c.CourseID, &multipart.FileHeader{})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	updated, err := s.UploadThumbnail(ctx, owner, c.CourseID, &multipart.FileHeader{Filename: "x.png"})
	require.NoError(t, err)
	assert.Equal(t, thumbnailFolder, up.folder)
	require.NotNil(t, updated.CourseThumbnailURL)
	assert.Contains(t, *updated.CourseThumbnailURL, "thumb.webp")

	up.err = apperror.Upstream("media host down", true, nil)
	_, err = s.UploadThumbnail(ctx, owner, c.CourseID, &multipart.FileHeader{Filename: "x.png"})
	assert.True(t, apperror.IsKind(err, apperror.KindUpstream))
}
