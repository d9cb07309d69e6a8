package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"kursusku_backend/internals/helpers/apperror"
)

const (
	DefaultMaxBytes = 2 * 1024 * 1024
	DefaultMaxW     = 1280
	DefaultMaxH     = 1280
	DefaultQuality  = 80
)

// Uploader dipakai service yang butuh upload gambar (thumbnail course, dll).
type Uploader interface {
	UploadImage(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error)
}

type Options struct {
	CloudName string
	APIKey    string
	APISecret string
	BaseURL   string // default https://api.cloudinary.com/v1_1
	MaxBytes  int
	MaxW      int
	MaxH      int
	Quality   float32
	Timeout   time.Duration
}

// CloudUploader mengunggah gambar (sudah di-resize + WebP) ke media host
// yang kompatibel dengan Cloudinary upload API.
type CloudUploader struct {
	opt    Options
	client *resty.Client
}

func NewCloudUploader(opt Options) *CloudUploader {
	if opt.BaseURL == "" {
		opt.BaseURL = "https://api.cloudinary.com/v1_1"
	}
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = DefaultMaxBytes
	}
	if opt.MaxW <= 0 {
		opt.MaxW = DefaultMaxW
	}
	if opt.MaxH <= 0 {
		opt.MaxH = DefaultMaxH
	}
	if opt.Quality <= 0 {
		opt.Quality = DefaultQuality
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 15 * time.Second
	}
	return &CloudUploader{
		opt:    opt,
		client: resty.New().SetBaseURL(strings.TrimRight(opt.BaseURL, "/")).SetTimeout(opt.Timeout),
	}
}

func (u *CloudUploader) Configured() bool {
	return u.opt.CloudName != "" && u.opt.APIKey != "" && u.opt.APISecret != ""
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (u *CloudUploader) UploadImage(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	if !u.Configured() {
		return "", apperror.Internal("media host belum dikonfigurasi", nil)
	}
	if fh == nil {
		return "", apperror.ValidationMsg("file", "file wajib diisi")
	}
	if fh.Size > int64(u.opt.MaxBytes) {
		return "", apperror.ValidationMsg("file", fmt.Sprintf("ukuran file maksimal %dKB", u.opt.MaxBytes/1024))
	}
	src, err := fh.Open()
	if err != nil {
		return "", apperror.ValidationMsg("file", "gagal membuka file")
	}
	defer src.Close()

	raw, err := io.ReadAll(io.LimitReader(src, int64(u.opt.MaxBytes)+1))
	if err != nil {
		return "", apperror.ValidationMsg("file", "gagal membaca file")
	}
	if len(raw) > u.opt.MaxBytes {
		return "", apperror.ValidationMsg("file", fmt.Sprintf("ukuran file maksimal %dKB", u.opt.MaxBytes/1024))
	}

	out, err := ProcessImage(raw, fh.Filename, u.opt.MaxW, u.opt.MaxH, u.opt.Quality)
	if err != nil {
		return "", err
	}
	return u.upload(ctx, folder, out)
}

func (u *CloudUploader) upload(ctx context.Context, folder string, data []byte) (string, error) {
	params := map[string]string{
		"folder":    folder,
		"public_id": uuid.NewString(),
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
	}
	form := make(map[string]string, len(params)+2)
	for k, v := range params {
		form[k] = v
	}
	form["api_key"] = u.opt.APIKey
	form["signature"] = Sign(params, u.opt.APISecret)

	var res uploadResponse
	resp, err := u.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetFileReader("file", params["public_id"]+".webp", bytes.NewReader(data)).
		SetResult(&res).
		SetError(&res).
		Post("/" + u.opt.CloudName + "/image/upload")
	if err != nil {
		return "", apperror.Upstream("media host tidak dapat dihubungi", true, err)
	}
	if resp.IsError() {
		msg := "upload ke media host gagal"
		if res.Error != nil && res.Error.Message != "" {
			msg = res.Error.Message
		}
		return "", apperror.Upstream(msg, resp.StatusCode() >= http.StatusInternalServerError, fmt.Errorf("status %d", resp.StatusCode()))
	}
	if res.SecureURL == "" {
		return "", apperror.Upstream("media host tidak mengembalikan URL", false, nil)
	}
	return res.SecureURL, nil
}

// Sign: sha1 dari param terurut "k=v&k=v" + secret.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&") + secret))
	return hex.EncodeToString(sum[:])
}

/* =======================================================================
   Decode → resize → encode WebP
======================================================================= */

func ProcessImage(raw []byte, filename string, maxW, maxH int, quality float32) ([]byte, error) {
	img, err := decodeImage(raw, filename)
	if err != nil {
		return nil, apperror.ValidationMsg("file", "format gambar tidak didukung (jpeg/png/webp)")
	}
	b := img.Bounds()
	if b.Dx() > maxW || b.Dy() > maxH {
		img = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: quality}); err != nil {
		return nil, apperror.Internal("gagal encode webp", err)
	}
	return buf.Bytes(), nil
}

func decodeImage(all []byte, filename string) (image.Image, error) {
	if len(all) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	head := all
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)

	switch {
	case strings.Contains(ct, "jpeg"):
		return jpeg.Decode(bytes.NewReader(all))
	case strings.Contains(ct, "png"):
		return png.Decode(bytes.NewReader(all))
	case strings.Contains(ct, "webp"):
		return webp.Decode(bytes.NewReader(all))
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Decode(bytes.NewReader(all))
	case ".png":
		return png.Decode(bytes.NewReader(all))
	case ".webp":
		return webp.Decode(bytes.NewReader(all))
	}
	return nil, fmt.Errorf("format tidak didukung: %s", ct)
}
