package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/pipeline"
	"github.com/Lllllllleong/marketingkitflow/internal/repository"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tourStore struct {
	properties map[string]models.Property
	media      map[string][]models.PropertyMedia
}

func (s *tourStore) CreateProperty(context.Context, *models.Property) error { return nil }

func (s *tourStore) GetProperty(_ context.Context, id string) (*models.Property, error) {
	p, ok := s.properties[id]
	if !ok {
		return nil, fmt.Errorf("property %s: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (s *tourStore) ListProperties(_ context.Context, userID string) ([]models.Property, error) {
	var out []models.Property
	for _, p := range s.properties {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *tourStore) CreateMedia(context.Context, *models.PropertyMedia) error { return nil }

func (s *tourStore) ListMedia(_ context.Context, propertyID string) ([]models.PropertyMedia, error) {
	return s.media[propertyID], nil
}

func TestTourReturnsPropertyAndOrderedMedia(t *testing.T) {
	store := &tourStore{
		properties: map[string]models.Property{"prop_1": {ID: "prop_1", UserID: "u1", Address: "123 Main St"}},
		media: map[string][]models.PropertyMedia{"prop_1": {
			{ID: "media_1_0", Order: 0}, {ID: "media_1_1", Order: 1},
		}},
	}
	f := NewTourWithStore(store)

	res, err := f.Tour(context.Background(), &models.PropertyTourRequest{PropertyID: "prop_1"})
	require.NoError(t, err)
	assert.Equal(t, "123 Main St", res.Property.Address)
	require.Len(t, res.Media, 2)
	assert.Equal(t, 1, res.Media[1].Order)

	_, err = f.Tour(context.Background(), &models.PropertyTourRequest{PropertyID: "prop_x"})
	assert.ErrorIs(t, err, pipeline.ErrNotFound)

	_, err = f.Tour(context.Background(), &models.PropertyTourRequest{})
	assert.ErrorIs(t, err, pipeline.ErrValidation)
}

func TestListPropertiesRequiresUser(t *testing.T) {
	f := NewTourWithStore(&tourStore{properties: map[string]models.Property{
		"prop_1": {ID: "prop_1", UserID: "u1"},
		"prop_2": {ID: "prop_2", UserID: "u2"},
	}})

	res, err := f.ListProperties(context.Background(), &models.ListPropertiesRequest{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, res.Properties, 1)
	assert.Equal(t, "prop_1", res.Properties[0].ID)

	_, err = f.ListProperties(context.Background(), &models.ListPropertiesRequest{UserID: " "})
	assert.ErrorIs(t, err, pipeline.ErrValidation)
}

type fakeExecutions struct {
	req *executionspb.CreateExecutionRequest
	err error
}

func (f *fakeExecutions) CreateExecution(_ context.Context, req *executionspb.CreateExecutionRequest, _ ...gax.CallOption) (*executionspb.Execution, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &executionspb.Execution{Name: req.Parent + "/executions/exec-1"}, nil
}

func TestDispatcherStartsWorkflowExecution(t *testing.T) {
	client := &fakeExecutions{}
	f := NewDispatcherWithClient(client, DispatcherConfig{ProjectID: "proj", WorkflowLocation: "us-central1", WorkflowID: "regen"})

	name, err := f.Process(context.Background(), models.RegenerationEvent{PropertyID: "prop_1", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "projects/proj/locations/us-central1/workflows/regen/executions/exec-1", name)

	var arg models.RegenerateKitRequest
	require.NoError(t, json.Unmarshal([]byte(client.req.Execution.Argument), &arg))
	assert.Equal(t, models.RegenerateKitRequest{PropertyID: "prop_1", UserID: "u1"}, arg)
}

func TestDispatcherRejectsEmptyEventAndSurfacesErrors(t *testing.T) {
	client := &fakeExecutions{err: errors.New("permission denied")}
	f := NewDispatcherWithClient(client, DispatcherConfig{ProjectID: "proj", WorkflowLocation: "l", WorkflowID: "w"})

	_, err := f.Process(context.Background(), models.RegenerationEvent{})
	assert.ErrorIs(t, err, pipeline.ErrValidation)
	assert.Nil(t, client.req)

	_, err = f.Process(context.Background(), models.RegenerationEvent{PropertyID: "prop_1"})
	assert.ErrorContains(t, err, "permission denied")
}

func setKitEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PROJECT_ID", "proj")
	t.Setenv("GENERATED_ASSETS_BUCKET", "assets")
	t.Setenv("APP_ORIGIN", "https://kits.example.com")
	t.Setenv("IMAGE_API_BASE_URL", "https://images.example.com")
	t.Setenv("IMAGE_API_KEY", "secret")
}

func TestLoadKitConfigDefaults(t *testing.T) {
	setKitEnv(t)

	cfg, err := loadKitConfig()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxReferenceImages)
	assert.Equal(t, "us-central1", cfg.VertexAIRegion)
	assert.Equal(t, "marketingKits", cfg.Collections.Kits)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadKitConfigValidation(t *testing.T) {
	setKitEnv(t)
	t.Setenv("GENERATION_TIMEOUT", "soon")
	_, err := loadKitConfig()
	assert.ErrorContains(t, err, "GENERATION_TIMEOUT")

	t.Setenv("GENERATION_TIMEOUT", "90s")
	t.Setenv("MAX_REFERENCE_IMAGES", "0")
	_, err = loadKitConfig()
	assert.ErrorContains(t, err, "MAX_REFERENCE_IMAGES")

	t.Setenv("MAX_REFERENCE_IMAGES", "2")
	t.Setenv("APP_ORIGIN", "")
	_, err = loadKitConfig()
	assert.ErrorContains(t, err, "APP_ORIGIN")
}

func TestToResponse(t *testing.T) {
	res := toResponse(&pipeline.Result{
		Property:   &models.Property{ID: "prop_1"},
		Kit:        &models.MarketingKit{ID: "kit_1"},
		KitCreated: true,
		Skipped:    []string{"tiktok"},
		Progress:   []models.ProgressEvent{{Step: "Complete!", Percent: 100}},
	})
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "prop_1", res.PropertyID)
	assert.Equal(t, "kit_1", res.Kit.ID)
	assert.Equal(t, []string{"tiktok"}, res.Skipped)
}
