package courses

import (
	"errors"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/courses/course/model"
	userModel "kursusku_backend/internals/features/users/user/model"
	helper "kursusku_backend/internals/helpers"
)

type CourseSeed struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Description     string `json:"description"`
	PriceIDR        int64  `json:"price_idr"`
	InstructorEmail string `json:"instructor_email"`
	Published       bool   `json:"published"`
}

// SeedCoursesFromJSON: course dengan slug yang sudah ada dilewati.
func SeedCoursesFromJSON(db *gorm.DB, filePath string) (int, error) {
	log.Info().Str("file", filePath).Msg("📥 Membaca file course")

	file, err := os.ReadFile(filePath)
	if err != nil {
		return 0, err
	}
	var inputs []CourseSeed
	if err := sonic.Unmarshal(file, &inputs); err != nil {
		return 0, err
	}

	inserted := 0
	for _, data := range inputs {
		if strings.TrimSpace(data.Title) == "" || data.PriceIDR < 0 {
			log.Warn().Str("title", data.Title).Msg("⚠️ seed course tidak valid, dilewati")
			continue
		}
		slug := data.Slug
		if slug == "" {
			slug = data.Title
		}
		slug = helper.Slugify(slug, 160)

		var count int64
		if err := db.Unscoped().Model(&model.CourseModel{}).Where("course_slug = ?", slug).Count(&count).Error; err != nil {
			return inserted, err
		}
		if count > 0 {
			log.Info().Str("slug", slug).Msg("ℹ️ Course sudah ada, dilewati")
			continue
		}

		c := model.CourseModel{
			CourseTitle:       data.Title,
			CourseSlug:        slug,
			CoursePriceIDR:    data.PriceIDR,
			CourseIsPublished: data.Published,
		}
		if d := strings.TrimSpace(data.Description); d != "" {
			c.CourseDescription = &d
		}
		if data.InstructorEmail != "" {
			var u userModel.UserModel
			err := db.Select("id").Where("email = ?", strings.ToLower(data.InstructorEmail)).First(&u).Error
			switch {
			case err == nil:
				id := u.ID
				c.CourseInstructorID = &id
			case errors.Is(err, gorm.ErrRecordNotFound):
				log.Warn().Str("email", data.InstructorEmail).Msg("⚠️ instructor tidak ditemukan")
			default:
				return inserted, err
			}
		}
		if err := db.Create(&c).Error; err != nil {
			log.Error().Err(err).Str("slug", slug).Msg("❌ Gagal insert course")
			continue
		}
		inserted++
		log.Info().Str("slug", slug).Msg("✅ Berhasil insert course")
	}
	return inserted, nil
}
