package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kursusku_backend/internals/helpers/apperror"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestProcessImage_ResizesAndEncodesWebP(t *testing.T) {
	out, err := ProcessImage(pngBytes(t, 2000, 1000), "thumb.png", 1280, 1280, 80)
	require.NoError(t, err)

	img, err := webp.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1280, img.Bounds().Dx())
	assert.Equal(t, 640, img.Bounds().Dy())
}

func TestProcessImage_KeepsSmallImage(t *testing.T) {
	out, err := ProcessImage(pngBytes(t, 100, 50), "thumb.png", 1280, 1280, 80)
	require.NoError(t, err)

	img, err := webp.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestProcessImage_RejectsUnknownFormat(t *testing.T) {
	_, err := ProcessImage([]byte("plain text, not an image"), "notes.txt", 100, 100, 80)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestSign_SortedAndSkipsEmpty(t *testing.T) {
	a := Sign(map[string]string{"timestamp": "1", "folder": "courses", "empty": ""}, "s3cret")
	b := Sign(map[string]string{"folder": "courses", "timestamp": "1"}, "s3cret")
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)
	assert.NotEqual(t, a, Sign(map[string]string{"folder": "courses", "timestamp": "1"}, "other"))
}

func TestUpload_ReturnsSecureURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.Equal(t, "courses", r.FormValue("folder"))
		assert.NotEmpty(t, r.FormValue("signature"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example.com/courses/x.webp","public_id":"x"}`))
	}))
	defer srv.Close()

	u := NewCloudUploader(Options{CloudName: "demo", APIKey: "key", APISecret: "secret", BaseURL: srv.URL})
	url, err := u.upload(context.Background(), "courses", []byte("webp-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/courses/x.webp", url)
}

func TestUpload_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream down"}}`))
	}))
	defer srv.Close()

	u := NewCloudUploader(Options{CloudName: "demo", APIKey: "key", APISecret: "secret", BaseURL: srv.URL})
	_, err := u.upload(context.Background(), "courses", []byte("x"))
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindUpstream, ae.Kind)
	assert.True(t, ae.Retryable)
	assert.True(t, strings.Contains(ae.Message, "upstream down"))
}

func TestUploadImage_NotConfigured(t *testing.T) {
	u := NewCloudUploader(Options{})
	_, err := u.UploadImage(context.Background(), "courses", nil)
	assert.True(t, apperror.IsKind(err, apperror.KindInternal))
}
