package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/marketingkitflow/internal/metrics"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
)

// TourURL is the public gallery link for a property.
func (p *Pipeline) TourURL(propertyID string) string {
	return fmt.Sprintf("%s/tour/%s", p.cfg.Origin, propertyID)
}

// DownloadURL is the kit download link for a property.
func (p *Pipeline) DownloadURL(propertyID string) string {
	return fmt.Sprintf("%s/download/%s", p.cfg.Origin, propertyID)
}

// UpsertKit writes the kit for payload.PropertyID. An existing kit is updated in place and
// keeps its id and createdAt; otherwise a new kit is created. It reports whether a kit
// was created.
func (p *Pipeline) UpsertKit(ctx context.Context, payload *models.MarketingKit) (*models.MarketingKit, bool, error) {
	defer metrics.ObserveStage("kit", time.Now())

	now := p.now()
	kit := *payload
	kit.KitType = models.KitTypeSocialMedia
	kit.UpdatedAt = now

	existing, err := p.store.FindKit(ctx, kit.PropertyID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: lookup for property %s: %w", ErrPersistence, kit.PropertyID, err)
	}
	if existing != nil {
		kit.ID = existing.ID
		kit.CreatedAt = existing.CreatedAt
		if err := p.store.UpdateKit(ctx, existing.ID, &kit); err != nil {
			return nil, false, fmt.Errorf("%w: update %s: %w", ErrPersistence, existing.ID, err)
		}
		slog.Info("Updated marketing kit.", "kitId", kit.ID, "propertyId", kit.PropertyID)
		return &kit, false, nil
	}

	kit.CreatedAt = now
	_, err = createOnFreeID(ctx, p.timestampIDs("kit"), func(ctx context.Context, id string) error {
		kit.ID = id
		return p.store.CreateKit(ctx, &kit)
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: create %s: %w", ErrPersistence, kit.ID, err)
	}
	slog.Info("Created marketing kit.", "kitId", kit.ID, "propertyId", kit.PropertyID)
	return &kit, true, nil
}

// finalizeKit builds the optional brochure and upserts the kit.
func (p *Pipeline) finalizeKit(ctx context.Context, property *models.Property, content models.SocialContent, graphics GraphicsResult) (*models.MarketingKit, bool, error) {
	var brochureURL string
	if p.brochure != nil && len(graphics.Assets) > 0 {
		url, err := p.brochure.Build(ctx, property.ID, graphics.Assets)
		if err != nil {
			slog.Warn("Brochure build failed, continuing without it.", "propertyId", property.ID, "error", err)
		} else {
			brochureURL = url
		}
	}

	return p.UpsertKit(ctx, &models.MarketingKit{
		PropertyID:        property.ID,
		UserID:            property.UserID,
		TourURL:           p.TourURL(property.ID),
		SocialContent:     content,
		GeneratedGraphics: graphics.Assets,
		DownloadURL:       p.DownloadURL(property.ID),
		BrochureURL:       brochureURL,
	})
}
