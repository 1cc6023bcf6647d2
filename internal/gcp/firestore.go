package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/marketingkitflow/internal/repository"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// CollectionsFromEnv reads the collection names, falling back to the defaults.
func CollectionsFromEnv() repository.Collections {
	c := repository.DefaultCollections()
	return repository.Collections{
		Users:      GetEnv("FIRESTORE_USERS_COLLECTION", c.Users),
		Clients:    GetEnv("FIRESTORE_CLIENTS_COLLECTION", c.Clients),
		Properties: GetEnv("FIRESTORE_PROPERTIES_COLLECTION", c.Properties),
		Media:      GetEnv("FIRESTORE_MEDIA_COLLECTION", c.Media),
		Kits:       GetEnv("FIRESTORE_KITS_COLLECTION", c.Kits),
	}
}
