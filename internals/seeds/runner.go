package seeds

import (
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	courses "kursusku_backend/internals/seeds/courses"
	users "kursusku_backend/internals/seeds/users/auth"
)

// RunAllSeeds: urutan penting, course butuh instructor.
func RunAllSeeds(db *gorm.DB, dir string) error {
	//* User
	nUsers, err := users.SeedUsersFromJSON(db, filepath.Join(dir, "users/auth/data_users.json"))
	if err != nil {
		return err
	}

	//* Course
	nCourses, err := courses.SeedCoursesFromJSON(db, filepath.Join(dir, "courses/data_courses.json"))
	if err != nil {
		return err
	}

	log.Info().Int("users", nUsers).Int("courses", nCourses).Msg("🌱 seed selesai")
	return nil
}
