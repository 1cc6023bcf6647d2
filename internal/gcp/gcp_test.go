package gcp

import (
	"context"
	"testing"

	"cloud.google.com/go/storage"
	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/marketingkitflow/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestToGenaiSchemaPosts(t *testing.T) {
	s := ToGenaiSchema(pipeline.FormatPosts.Schema())

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"instagram", "facebook", "tiktok", "youtube"}, s.Required)
	require.Contains(t, s.Properties, "tiktok")
	assert.Equal(t, genai.TypeArray, s.Properties["tiktok"].Type)
	require.NotNil(t, s.Properties["tiktok"].Items)
	assert.Equal(t, genai.TypeString, s.Properties["tiktok"].Items.Type)
}

func TestToGenaiSchemaSingle(t *testing.T) {
	s := ToGenaiSchema(pipeline.FormatSingle.Schema())
	for _, name := range s.Required {
		assert.Equal(t, genai.TypeString, s.Properties[name].Type, name)
		assert.Nil(t, s.Properties[name].Items)
	}
}

func TestExtractTextStripsFences(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("```json\n{\"instagram\":"), genai.Text("[\"a\"]}\n```")}},
	}}}
	assert.Equal(t, `{"instagram":["a"]}`, extractText(resp))
	assert.Empty(t, extractText(nil))
}

func TestAssetBucketPublicURL(t *testing.T) {
	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()

	b := NewAssetBucket(client, "kit-assets", "")
	assert.Equal(t, "https://storage.googleapis.com/kit-assets/generated/prop_1/instagram-1.png", b.PublicURL("generated/prop_1/instagram-1.png"))

	cdn := NewAssetBucket(client, "kit-assets", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/brochures/prop%201/marketing-kit.pdf", cdn.PublicURL("brochures/prop 1/marketing-kit.pdf"))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("MARKETINGKIT_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("MARKETINGKIT_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("MARKETINGKIT_TEST_UNSET", "fallback"))
}

func TestCollectionsFromEnv(t *testing.T) {
	t.Setenv("FIRESTORE_KITS_COLLECTION", "kits_staging")
	c := CollectionsFromEnv()
	assert.Equal(t, "kits_staging", c.Kits)
	assert.Equal(t, "properties", c.Properties)
}
