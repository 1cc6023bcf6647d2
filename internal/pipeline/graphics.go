package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/marketingkitflow/internal/imagegen"
	"github.com/Lllllllleong/marketingkitflow/internal/metrics"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
)

// DefaultMaxReferenceImages caps how many photos are sent as references.
const DefaultMaxReferenceImages = 3

const (
	sizeLandscape = "1536x1024"
	sizeVertical  = "1024x1536"
)

// Platform is one target for a generated graphic.
type Platform struct {
	Name   string
	Label  string
	Size   string
	Prompt func(PropertyFacts) string
}

// Platforms are generated in this order.
var Platforms = []Platform{
	{
		Name:  "instagram",
		Label: "Instagram",
		Size:  sizeLandscape,
		Prompt: func(f PropertyFacts) string {
			return fmt.Sprintf(`Create a professional Instagram story graphic showcasing this %s property. Show elegant room highlights with modern typography overlay displaying "%d bed, %s bath" and the price "%s". Use a luxury real estate aesthetic with clean, minimal design.`,
				f.PropertyType, f.Bedrooms, f.FormattedBathrooms(), f.FormattedPrice())
		},
	},
	{
		Name:  "facebook",
		Label: "Facebook",
		Size:  sizeLandscape,
		Prompt: func(PropertyFacts) string {
			return `Generate a Facebook post graphic featuring this property with a warm, inviting atmosphere. Include text overlay with key details and a call-to-action "Schedule Your Tour Today". Use professional real estate styling.`
		},
	},
	{
		Name:  "tiktok",
		Label: "TikTok",
		Size:  sizeVertical,
		Prompt: func(PropertyFacts) string {
			return `Create a dynamic TikTok-style vertical graphic showcasing the property highlights. Include modern bold text and trending real estate hashtags overlay. Make it engaging for younger buyers.`
		},
	},
	{
		Name:  "youtube",
		Label: "YouTube",
		Size:  sizeLandscape,
		Prompt: func(f PropertyFacts) string {
			return fmt.Sprintf(`Design a YouTube thumbnail-style image for a property tour video. Include the price "%s" prominently, "%d bed, %s bath", and "VIRTUAL TOUR" text. Use professional real estate branding with high contrast and readable fonts.`,
				f.FormattedPrice(), f.Bedrooms, f.FormattedBathrooms())
		},
	},
}

// PlatformFailure records why a platform has no graphic.
type PlatformFailure struct {
	Platform string
	Err      error
}

// GraphicsResult is the degraded-but-usable outcome of the graphics stage.
type GraphicsResult struct {
	Assets   []models.GeneratedAsset
	Failures []PlatformFailure
	// Skipped is set when there were no reference photos to work from.
	Skipped bool
}

func (r GraphicsResult) FailedPlatforms() []string {
	if len(r.Failures) == 0 {
		return nil
	}
	names := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		names[i] = f.Platform
	}
	return names
}

// ReferenceImages picks up to limit photo URLs in media order. Videos are never used.
func ReferenceImages(media []models.PropertyMedia, limit int) []string {
	refs := make([]string, 0, limit)
	for _, m := range media {
		if len(refs) == limit {
			break
		}
		if m.Type == models.MediaTypePhoto && m.URL != "" {
			refs = append(refs, m.URL)
		}
	}
	return refs
}

// SynthesizeGraphics asks for one graphic per platform, one call at a time. A failing
// platform is left out of the result; the stage itself never fails.
func (p *Pipeline) SynthesizeGraphics(ctx context.Context, session *GenerationSession, property *models.Property, media []models.PropertyMedia) GraphicsResult {
	defer metrics.ObserveStage("graphics", time.Now())
	logCtx := slog.With("propertyId", property.ID)

	session.Report("Creating platform graphics...", 60)
	result := GraphicsResult{Assets: []models.GeneratedAsset{}}

	refs := ReferenceImages(media, p.cfg.MaxReferenceImages)
	if len(refs) == 0 {
		logCtx.Info("No reference photos available, skipping graphics generation.")
		result.Skipped = true
		return result
	}

	facts := FactsFromProperty(property)
	for i, platform := range Platforms {
		if ctx.Err() != nil {
			logCtx.Warn("Graphics generation interrupted.", "error", ctx.Err())
			break
		}
		session.Report(fmt.Sprintf("Creating %s graphic (%d/%d)...", platform.Label, i+1, len(Platforms)), 60+i*30/len(Platforms))

		asset, err := p.generatePlatformGraphic(ctx, property.ID, platform, facts, refs)
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrGraphicsGeneration, platform.Name, err)
			logCtx.Warn("Platform graphic failed, continuing.", "platform", platform.Name, "error", err)
			metrics.GraphicsPlatformTotal.WithLabelValues(platform.Name, "failed").Inc()
			result.Failures = append(result.Failures, PlatformFailure{Platform: platform.Name, Err: err})
			continue
		}
		metrics.GraphicsPlatformTotal.WithLabelValues(platform.Name, "success").Inc()
		result.Assets = append(result.Assets, asset)
	}
	logCtx.Info("Graphics generation finished.", "generated", len(result.Assets), "failed", len(result.Failures))
	return result
}

func (p *Pipeline) generatePlatformGraphic(ctx context.Context, propertyID string, platform Platform, facts PropertyFacts, refs []string) (models.GeneratedAsset, error) {
	prompt := platform.Prompt(facts)
	images, err := p.images.ModifyImage(ctx, imagegen.Request{
		Images:  refs,
		Prompt:  prompt,
		Size:    platform.Size,
		Quality: "high",
		N:       1,
	})
	if err != nil {
		return models.GeneratedAsset{}, err
	}
	if len(images) == 0 {
		return models.GeneratedAsset{}, errors.New("no image returned")
	}

	img := images[0]
	url := img.URL
	if url == "" {
		if len(img.Data) == 0 {
			return models.GeneratedAsset{}, errors.New("image has neither url nor data")
		}
		if p.uploader == nil {
			return models.GeneratedAsset{}, errors.New("inline image returned but no asset uploader is configured")
		}
		contentType := img.MimeType
		if contentType == "" {
			contentType = "image/png"
		}
		objectName := fmt.Sprintf("generated/%s/%s-%d.png", propertyID, platform.Name, p.millis())
		if url, err = p.uploader.Upload(ctx, objectName, img.Data, contentType); err != nil {
			return models.GeneratedAsset{}, fmt.Errorf("failed to upload generated image: %w", err)
		}
	}
	return models.GeneratedAsset{
		Platform: platform.Name,
		URL:      url,
		Prompt:   prompt,
		Size:     platform.Size,
	}, nil
}
