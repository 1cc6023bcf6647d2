package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/marketingkitflow/internal/metrics"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
)

// CreateProperty persists a new active property for the listing.
func (p *Pipeline) CreateProperty(ctx context.Context, userID, clientID string, listing *Listing) (*models.Property, error) {
	defer metrics.ObserveStage("property", time.Now())

	property := &models.Property{
		UserID:        userID,
		ClientID:      clientID,
		Address:       listing.Address,
		Price:         listing.Price,
		Bedrooms:      listing.Bedrooms,
		Bathrooms:     listing.Bathrooms,
		SquareFootage: listing.SquareFootage,
		PropertyType:  listing.PropertyType,
		Status:        models.PropertyStatusActive,
		Description:   listing.Description,
	}
	_, err := createOnFreeID(ctx, p.timestampIDs("prop"), func(ctx context.Context, id string) error {
		now := p.now()
		property.ID, property.CreatedAt, property.UpdatedAt = id, now, now
		return p.store.CreateProperty(ctx, property)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: property %s: %w", ErrResourceCreation, property.ID, err)
	}
	slog.Info("Created property.", "propertyId", property.ID, "userId", userID, "clientId", clientID)
	return property, nil
}

// SaveMedia records each uploaded file in upload order with a dense 0-based order. Files
// without a URL are skipped. The first failure stops the loop; records already written
// stay in place.
func (p *Pipeline) SaveMedia(ctx context.Context, property *models.Property, files []models.UploadedFile) ([]models.PropertyMedia, error) {
	defer metrics.ObserveStage("media", time.Now())

	saved := make([]models.PropertyMedia, 0, len(files))
	for i, file := range files {
		if file.URL == "" {
			slog.Warn("Skipping media file without a URL.", "propertyId", property.ID, "filename", file.Filename, "index", i)
			continue
		}
		order := len(saved)
		media := models.PropertyMedia{
			PropertyID: property.ID,
			UserID:     property.UserID,
			Type:       file.Type,
			URL:        file.URL,
			Filename:   file.Filename,
			Order:      order,
		}
		ids := []IDFunc{
			func() string { return fmt.Sprintf("media_%d_%d", p.millis(), order) },
			func() string { return fmt.Sprintf("media_%d_%d_%s", p.millis(), order, p.suffix()) },
		}
		_, err := createOnFreeID(ctx, ids, func(ctx context.Context, id string) error {
			media.ID, media.CreatedAt = id, p.now()
			return p.store.CreateMedia(ctx, &media)
		})
		if err != nil {
			return saved, fmt.Errorf("%w: media %d of property %s: %w", ErrResourceCreation, i, property.ID, err)
		}
		saved = append(saved, media)
	}
	return saved, nil
}
