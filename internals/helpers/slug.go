package helper

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const DefaultSlugMaxLen = 160

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Slugify mengubah teks bebas jadi slug [a-z0-9-]: diakritik dibuang,
// "-" dikompres, ujung di-trim, dipotong ke maxLen. Fallback "item".
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSlugMaxLen
	}
	s = strings.ToLower(strings.TrimSpace(s))

	// é → e
	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = reNonAlnum.ReplaceAllString(string(buf), "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > maxLen {
		s = strings.Trim(string([]rune(s)[:maxLen]), "-")
	}
	if s == "" {
		s = "item"
	}
	return s
}

// SlugOptions: tabel & kolom yang dicek untuk keunikan.
type SlugOptions struct {
	Table            string
	Column           string
	SoftDeleteColumn string // kosong = tanpa soft-delete
	// ExcludeColumn/ExcludeValue: baris yang boleh "memiliki" slug (saat update)
	ExcludeColumn string
	ExcludeValue  any
	MaxLen        int
}

// UniqueSlug mencoba base, lalu base-2, base-3, ... (case-insensitive).
// Setelah 25 percobaan jatuh ke suffix acak pendek.
func UniqueSlug(ctx context.Context, db *gorm.DB, opts SlugOptions, base string) (string, error) {
	if opts.Table == "" || opts.Column == "" {
		return "", fmt.Errorf("slug options: table/column wajib diisi")
	}
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = DefaultSlugMaxLen
	}
	base = Slugify(base, maxLen)

	slug := base
	for i := 0; i < 25; i++ {
		taken, err := slugTaken(ctx, db, opts, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		suffix := fmt.Sprintf("-%d", i+2)
		slug = trimForSuffix(base, suffix, maxLen) + suffix
	}

	r := fmt.Sprintf("-%x", time.Now().UnixNano()&0xffff)
	return trimForSuffix(base, r, maxLen) + r, nil
}

func slugTaken(ctx context.Context, db *gorm.DB, opts SlugOptions, candidate string) (bool, error) {
	q := db.WithContext(ctx).Table(opts.Table).
		Where(fmt.Sprintf("LOWER(%s) = ?", opts.Column), strings.ToLower(candidate))
	if opts.SoftDeleteColumn != "" {
		q = q.Where(fmt.Sprintf("%s IS NULL", opts.SoftDeleteColumn))
	}
	if opts.ExcludeColumn != "" && opts.ExcludeValue != nil {
		q = q.Where(fmt.Sprintf("%s <> ?", opts.ExcludeColumn), opts.ExcludeValue)
	}
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// trimForSuffix memotong base agar base+suffix <= maxLen.
func trimForSuffix(base, suffix string, maxLen int) string {
	keep := maxLen - len(suffix)
	if keep < 1 {
		return "x"
	}
	rs := []rune(base)
	if len(rs) > keep {
		rs = rs[:keep]
	}
	out := strings.Trim(string(rs), "-")
	if out == "" {
		out = "x"
	}
	return out
}
