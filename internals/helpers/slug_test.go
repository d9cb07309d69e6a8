package helper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kursusku_backend/internals/helpers/testdb"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Belajar Go Dasar":       "belajar-go-dasar",
		"  Café & Crème!!  ":     "cafe-creme",
		"---":                    "item",
		"Fiber v2 / GORM -- 101": "fiber-v2-gorm-101",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in, 0), in)
	}
	assert.Equal(t, "abc", Slugify("abc-def", 4))
}

type slugRow struct {
	ID   int    `gorm:"primaryKey"`
	Slug string `gorm:"column:slug"`
}

func (slugRow) TableName() string { return "slug_rows" }

func TestUniqueSlug_AddsSuffix(t *testing.T) {
	db := testdb.New(t, &slugRow{})
	ctx := context.Background()
	opts := SlugOptions{Table: "slug_rows", Column: "slug"}

	s, err := UniqueSlug(ctx, db, opts, "Golang Dasar")
	require.NoError(t, err)
	assert.Equal(t, "golang-dasar", s)
	require.NoError(t, db.Create(&slugRow{ID: 1, Slug: s}).Error)

	s, err = UniqueSlug(ctx, db, opts, "GOLANG dasar")
	require.NoError(t, err)
	assert.Equal(t, "golang-dasar-2", s)
	require.NoError(t, db.Create(&slugRow{ID: 2, Slug: s}).Error)

	s, err = UniqueSlug(ctx, db, opts, "golang dasar")
	require.NoError(t, err)
	assert.Equal(t, "golang-dasar-3", s)

	// baris sendiri tidak dihitung saat update
	opts.ExcludeColumn, opts.ExcludeValue = "id", 1
	s, err = UniqueSlug(ctx, db, opts, "golang dasar")
	require.NoError(t, err)
	assert.Equal(t, "golang-dasar", s)
}
