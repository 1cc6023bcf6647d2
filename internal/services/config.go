package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Lllllllleong/marketingkitflow/internal/gcp"
	"github.com/Lllllllleong/marketingkitflow/internal/pipeline"
	"github.com/Lllllllleong/marketingkitflow/internal/repository"
)

// KitConfig holds all configuration for the kit generation services.
type KitConfig struct {
	ProjectID          string
	VertexAIRegion     string
	ContentModel       string
	AssetsBucket       string
	PublicAssetBaseURL string
	AppOrigin          string
	ImageAPIBaseURL    string
	ImageAPIKey        string
	ImageModel         string
	RedisAddr          string
	RedisPassword      string
	Timeout            time.Duration
	MaxReferenceImages int
	Collections        repository.Collections
}

// loadKitConfig loads and validates all necessary environment variables for kit generation.
func loadKitConfig() (*KitConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	assetsBucket := gcp.GetEnv("GENERATED_ASSETS_BUCKET", "")
	if assetsBucket == "" {
		return nil, fmt.Errorf("GENERATED_ASSETS_BUCKET environment variable must be set")
	}
	appOrigin := gcp.GetEnv("APP_ORIGIN", "")
	if appOrigin == "" {
		return nil, fmt.Errorf("APP_ORIGIN environment variable must be set")
	}
	imageAPIBaseURL := gcp.GetEnv("IMAGE_API_BASE_URL", "")
	imageAPIKey := gcp.GetEnv("IMAGE_API_KEY", "")
	if imageAPIBaseURL == "" || imageAPIKey == "" {
		return nil, fmt.Errorf("IMAGE_API_BASE_URL and IMAGE_API_KEY environment variables must be set")
	}

	timeout, err := time.ParseDuration(gcp.GetEnv("GENERATION_TIMEOUT", pipeline.DefaultTimeout.String()))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("GENERATION_TIMEOUT must be a positive duration such as 60s")
	}
	maxRefs, err := strconv.Atoi(gcp.GetEnv("MAX_REFERENCE_IMAGES", strconv.Itoa(pipeline.DefaultMaxReferenceImages)))
	if err != nil || maxRefs <= 0 {
		return nil, fmt.Errorf("MAX_REFERENCE_IMAGES must be a positive integer")
	}

	return &KitConfig{
		ProjectID:          projectID,
		VertexAIRegion:     gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		ContentModel:       gcp.GetEnv("CONTENT_MODEL", gcp.DefaultContentModel),
		AssetsBucket:       assetsBucket,
		PublicAssetBaseURL: gcp.GetEnv("PUBLIC_ASSET_BASE_URL", ""),
		AppOrigin:          appOrigin,
		ImageAPIBaseURL:    imageAPIBaseURL,
		ImageAPIKey:        imageAPIKey,
		ImageModel:         gcp.GetEnv("IMAGE_MODEL", "gpt-image-1"),
		RedisAddr:          gcp.GetEnv("REDIS_ADDR", ""),
		RedisPassword:      gcp.GetEnv("REDIS_PASSWORD", ""),
		Timeout:            timeout,
		MaxReferenceImages: maxRefs,
		Collections:        gcp.CollectionsFromEnv(),
	}, nil
}

// DispatcherConfig holds the configuration for the regeneration dispatcher.
type DispatcherConfig struct {
	ProjectID        string
	WorkflowID       string
	WorkflowLocation string
}

func loadDispatcherConfig() (*DispatcherConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	return &DispatcherConfig{
		ProjectID:        projectID,
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", "marketing-kit-regeneration"),
	}, nil
}
