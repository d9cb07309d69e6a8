package seeds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	courseModel "kursusku_backend/internals/features/courses/course/model"
	userModel "kursusku_backend/internals/features/users/user/model"
	"kursusku_backend/internals/helpers/testdb"
)

func TestRunAllSeeds_Idempotent(t *testing.T) {
	db := testdb.New(t, &userModel.UserModel{}, &courseModel.CourseModel{})

	require.NoError(t, RunAllSeeds(db, "."))
	require.NoError(t, RunAllSeeds(db, "."))

	var users, courses int64
	require.NoError(t, db.Model(&userModel.UserModel{}).Count(&users).Error)
	require.NoError(t, db.Model(&courseModel.CourseModel{}).Count(&courses).Error)
	assert.Equal(t, int64(3), users)
	assert.Equal(t, int64(2), courses)

	var instructor userModel.UserModel
	require.NoError(t, db.Where("email = ?", "instruktur@kursusku.id").First(&instructor).Error)
	assert.Equal(t, "instructor", instructor.Role)
	assert.True(t, instructor.HasPassword())

	var c courseModel.CourseModel
	require.NoError(t, db.Where("course_slug = ?", "rest-api-dengan-fiber").First(&c).Error)
	require.NotNil(t, c.CourseInstructorID)
	assert.Equal(t, instructor.ID, *c.CourseInstructorID)
	assert.Equal(t, int64(149000), c.CoursePriceIDR)
}

func TestRunAllSeeds_MissingFile(t *testing.T) {
	db := testdb.New(t, &userModel.UserModel{}, &courseModel.CourseModel{})
	assert.Error(t, RunAllSeeds(db, t.TempDir()))
}
