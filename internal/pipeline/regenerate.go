package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/marketingkitflow/internal/repository"
)

// RegenerateRequest asks for a fresh kit for an existing property.
type RegenerateRequest struct {
	PropertyID string
	// UserID, when set, must own the property.
	UserID string
}

// Regenerate rebuilds the kit of an existing property from its stored media. The kit is
// updated in place when one exists.
func (p *Pipeline) Regenerate(ctx context.Context, req RegenerateRequest, sink ProgressSink) (*Result, error) {
	return p.guarded(ctx, "regenerate", sink, func(ctx context.Context, session *GenerationSession) (*Result, error) {
		return p.regenerate(ctx, session, req)
	})
}

func (p *Pipeline) regenerate(ctx context.Context, session *GenerationSession, req RegenerateRequest) (*Result, error) {
	logCtx := slog.With("propertyId", req.PropertyID, "userId", req.UserID)

	session.Report("Initializing...", 0)
	if strings.TrimSpace(req.PropertyID) == "" {
		return nil, fmt.Errorf("%w: property id is required", ErrValidation)
	}

	release, err := p.acquire(ctx, PropertyLeaseKey(req.PropertyID))
	if err != nil {
		return nil, err
	}
	defer release()

	property, err := p.store.GetProperty(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load property %s: %w", req.PropertyID, err)
	}
	if req.UserID != "" && property.UserID != req.UserID {
		return nil, fmt.Errorf("property %s for user %s: %w", req.PropertyID, req.UserID, ErrNotFound)
	}

	session.Report("Loading property media...", 20)
	media, err := p.store.ListMedia(ctx, property.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load media for property %s: %w", property.ID, err)
	}
	logCtx.Info("Loaded property media.", "mediaCount", len(media))

	session.Report("Generating social media content with AI...", 40)
	content, err := p.SynthesizeContent(ctx, FactsFromProperty(property), FormatSingle)
	if err != nil {
		return nil, err
	}

	graphics := p.SynthesizeGraphics(ctx, session, property, media)

	session.Report("Saving marketing kit...", 90)
	kit, created, err := p.finalizeKit(ctx, property, content, graphics)
	if err != nil {
		return nil, err
	}

	session.Report("Complete!", 100)
	logCtx.Info("Marketing kit regenerated.", "kitId", kit.ID, "created", created)
	return &Result{
		Property:   property,
		Kit:        kit,
		KitCreated: created,
		Skipped:    graphics.FailedPlatforms(),
	}, nil
}
