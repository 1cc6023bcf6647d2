package brochure

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPublisher struct {
	name        string
	data        []byte
	contentType string
}

func (p *memPublisher) Replace(_ context.Context, objectName string, data []byte, contentType string) (string, error) {
	p.name, p.data, p.contentType = objectName, data, contentType
	return "https://storage.example.com/" + objectName, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 20, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestBuildPublishesPDF(t *testing.T) {
	body := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	pub := &memPublisher{}
	b := NewBuilder(pub, srv.Client())
	url, err := b.Build(context.Background(), "prop_1", []models.GeneratedAsset{
		{Platform: "instagram", URL: srv.URL + "/instagram.png"},
		{Platform: "youtube", URL: srv.URL + "/youtube.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://storage.example.com/brochures/prop_1/marketing-kit.pdf", url)
	assert.Equal(t, "brochures/prop_1/marketing-kit.pdf", pub.name)
	assert.Equal(t, "application/pdf", pub.contentType)
	assert.True(t, bytes.HasPrefix(pub.data, []byte("%PDF")))
}

func TestBuildFailsOnDownloadError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	pub := &memPublisher{}
	_, err := NewBuilder(pub, srv.Client()).Build(context.Background(), "prop_1", []models.GeneratedAsset{
		{Platform: "tiktok", URL: srv.URL + "/missing.png"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiktok graphic")
	assert.Nil(t, pub.data)
}

func TestBuildRequiresAssets(t *testing.T) {
	_, err := NewBuilder(&memPublisher{}, nil).Build(context.Background(), "prop_1", nil)
	assert.Error(t, err)
}

func TestBuildRejectsOversizedImage(t *testing.T) {
	body := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	pub := &memPublisher{}
	b := NewBuilder(pub, srv.Client())
	b.maxImageBytes = int64(len(body) - 1)

	_, err := b.Build(context.Background(), "prop_1", []models.GeneratedAsset{
		{Platform: "instagram", URL: srv.URL + "/instagram.png"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image exceeds")
	assert.Empty(t, pub.name)

	b.maxImageBytes = int64(len(body))
	_, err = b.Build(context.Background(), "prop_1", []models.GeneratedAsset{
		{Platform: "instagram", URL: srv.URL + "/instagram.png"},
	})
	require.NoError(t, err)
}
