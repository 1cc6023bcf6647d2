package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/marketingkitflow/internal/gcp"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/pipeline"
	"github.com/Lllllllleong/marketingkitflow/internal/repository"
)

// TourStore is the read side needed by the tour and listing endpoints.
type TourStore interface {
	repository.PropertyStore
	repository.MediaStore
}

// TourFunction serves the public property tour and the per-user property list.
type TourFunction struct {
	store           TourStore
	firestoreClient *firestore.Client
}

func NewTour(ctx context.Context) (*TourFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	slog.Info("Property tour logic initialized.")
	return &TourFunction{
		store:           repository.NewFirestoreStore(firestoreClient, gcp.CollectionsFromEnv()),
		firestoreClient: firestoreClient,
	}, nil
}

func NewTourWithStore(store TourStore) *TourFunction {
	return &TourFunction{store: store}
}

// Tour returns the property and its media in gallery order.
func (f *TourFunction) Tour(ctx context.Context, req *models.PropertyTourRequest) (*models.PropertyTourResponse, error) {
	id := strings.TrimSpace(req.PropertyID)
	if id == "" {
		return nil, fmt.Errorf("%w: property id is required", pipeline.ErrValidation)
	}
	property, err := f.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	media, err := f.store.ListMedia(ctx, id)
	if err != nil {
		slog.Error("Failed to load tour media.", "propertyId", id, "error", err)
		return nil, err
	}
	return &models.PropertyTourResponse{Property: property, Media: media}, nil
}

// ListProperties returns the user's properties, newest first.
func (f *TourFunction) ListProperties(ctx context.Context, req *models.ListPropertiesRequest) (*models.ListPropertiesResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", pipeline.ErrValidation)
	}
	properties, err := f.store.ListProperties(ctx, userID)
	if err != nil {
		slog.Error("Failed to list properties.", "userId", userID, "error", err)
		return nil, err
	}
	return &models.ListPropertiesResponse{Properties: properties}, nil
}

func (f *TourFunction) Close() error {
	if f.firestoreClient != nil {
		return f.firestoreClient.Close()
	}
	return nil
}
