// Package repository persists the marketing kit records.
//
// The pipeline depends on the narrow interfaces below; FirestoreStore implements all of
// them. Find* methods return (nil, nil) when nothing matches, Get* methods return
// ErrNotFound.
package repository

import (
	"context"
	"errors"

	"github.com/Lllllllleong/marketingkitflow/internal/models"
)

var (
	// ErrNotFound is returned when a record looked up by id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a record is created with an id that is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

type UserStore interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type ClientStore interface {
	FindClient(ctx context.Context, userID, email string) (*models.Client, error)
	CreateClient(ctx context.Context, client *models.Client) error
}

type PropertyStore interface {
	CreateProperty(ctx context.Context, property *models.Property) error
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	ListProperties(ctx context.Context, userID string) ([]models.Property, error)
}

// MediaStore lists media ordered by their upload position.
type MediaStore interface {
	CreateMedia(ctx context.Context, media *models.PropertyMedia) error
	ListMedia(ctx context.Context, propertyID string) ([]models.PropertyMedia, error)
}

// KitStore has no uniqueness constraint on propertyId; callers look up before writing.
type KitStore interface {
	FindKit(ctx context.Context, propertyID string) (*models.MarketingKit, error)
	CreateKit(ctx context.Context, kit *models.MarketingKit) error
	UpdateKit(ctx context.Context, id string, kit *models.MarketingKit) error
}

// Store is the full record store used by the pipeline.
type Store interface {
	UserStore
	ClientStore
	PropertyStore
	MediaStore
	KitStore
}
