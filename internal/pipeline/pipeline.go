// Package pipeline generates marketing kits: validation, identity and record bootstrapping,
// content and graphics synthesis, and the kit upsert, run under a timeout guard and an
// optional per-property lease.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Lllllllleong/marketingkitflow/internal/imagegen"
	"github.com/Lllllllleong/marketingkitflow/internal/lock"
	"github.com/Lllllllleong/marketingkitflow/internal/metrics"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/repository"
	"github.com/google/uuid"
)

// ContentGenerator returns an object matching schema, or an error.
type ContentGenerator interface {
	GenerateObject(ctx context.Context, prompt string, schema ObjectSchema) (map[string]any, error)
}

// ImageModifier produces images from reference images and a prompt.
type ImageModifier interface {
	ModifyImage(ctx context.Context, req imagegen.Request) ([]imagegen.Image, error)
}

// AssetUploader stores generated bytes and returns their public URL.
type AssetUploader interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// BrochureBuilder assembles the generated graphics into a downloadable document.
type BrochureBuilder interface {
	Build(ctx context.Context, propertyID string, assets []models.GeneratedAsset) (string, error)
}

// Leaser grants exclusive, expiring leases. The returned func releases the lease.
type Leaser interface {
	Lease(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Config holds the pipeline settings.
type Config struct {
	// Origin is the public web origin used to build tour and download links.
	Origin             string
	Timeout            time.Duration
	LeaseGrace         time.Duration
	MaxReferenceImages int
}

// Pipeline runs the new-listing and regeneration flows.
type Pipeline struct {
	store    repository.Store
	content  ContentGenerator
	images   ImageModifier
	uploader AssetUploader
	brochure BrochureBuilder
	leaser   Leaser
	cfg      Config
	now      func() time.Time
	suffix   func() string
}

type Option func(*Pipeline)

func WithAssetUploader(u AssetUploader) Option { return func(p *Pipeline) { p.uploader = u } }

func WithBrochureBuilder(b BrochureBuilder) Option { return func(p *Pipeline) { p.brochure = b } }

// WithLeaser enables per-property leasing. Without it runs are not mutually excluded.
func WithLeaser(l Leaser) Option { return func(p *Pipeline) { p.leaser = l } }

func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// WithSuffix replaces the random suffix used for retried client ids.
func WithSuffix(suffix func() string) Option { return func(p *Pipeline) { p.suffix = suffix } }

func New(store repository.Store, content ContentGenerator, images ImageModifier, cfg Config, opts ...Option) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.LeaseGrace <= 0 {
		cfg.LeaseGrace = 30 * time.Second
	}
	if cfg.MaxReferenceImages <= 0 {
		cfg.MaxReferenceImages = DefaultMaxReferenceImages
	}
	cfg.Origin = strings.TrimRight(cfg.Origin, "/")

	p := &Pipeline{
		store:   store,
		content: content,
		images:  images,
		cfg:     cfg,
		now:     time.Now,
		suffix:  randomSuffix,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome of a successful run.
type Result struct {
	Property   *models.Property
	Kit        *models.MarketingKit
	KitCreated bool
	// Skipped lists the platforms whose graphic could not be generated.
	Skipped  []string
	Progress []models.ProgressEvent
}

// GenerateRequest is a new listing to register and market.
type GenerateRequest struct {
	Principal models.Principal
	Intake    models.PropertyIntake
	Files     []models.UploadedFile
}

// Generate runs the new-listing flow: validate, ensure user and client, register the
// property and its media, then synthesize and persist the kit.
func (p *Pipeline) Generate(ctx context.Context, req GenerateRequest, sink ProgressSink) (*Result, error) {
	return p.guarded(ctx, "generate", sink, func(ctx context.Context, session *GenerationSession) (*Result, error) {
		return p.generate(ctx, session, req)
	})
}

func (p *Pipeline) generate(ctx context.Context, session *GenerationSession, req GenerateRequest) (*Result, error) {
	logCtx := slog.With("userId", req.Principal.ID)

	session.Report("Initializing...", 0)
	if strings.TrimSpace(req.Principal.ID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	listing, err := ValidateIntake(req.Intake, req.Files)
	if err != nil {
		return nil, err
	}

	release, err := p.acquire(ctx, IntakeLeaseKey(req.Principal.ID, listing.Address))
	if err != nil {
		return nil, err
	}
	defer release()

	session.Report("Setting up user account...", 10)
	p.EnsureUser(ctx, req.Principal)

	session.Report("Creating client profile...", 20)
	client, err := p.EnsureClient(ctx, req.Principal, listing.Address)
	if err != nil {
		return nil, err
	}

	session.Report("Saving property details...", 30)
	property, err := p.CreateProperty(ctx, req.Principal.ID, client.ID, listing)
	if err != nil {
		return nil, err
	}
	logCtx = logCtx.With("propertyId", property.ID)

	session.Report("Uploading media files...", 40)
	media, err := p.SaveMedia(ctx, property, req.Files)
	if err != nil {
		return nil, err
	}
	logCtx.Info("Property registered.", "mediaCount", len(media))

	session.Report("Generating social media content with AI...", 50)
	content, err := p.SynthesizeContent(ctx, FactsFromProperty(property), FormatPosts)
	if err != nil {
		return nil, err
	}

	graphics := p.SynthesizeGraphics(ctx, session, property, media)

	session.Report("Finalizing marketing kit...", 90)
	kit, created, err := p.finalizeKit(ctx, property, content, graphics)
	if err != nil {
		return nil, err
	}

	session.Report("Complete!", 100)
	logCtx.Info("Marketing kit generated.", "kitId", kit.ID, "created", created, "graphics", len(kit.GeneratedGraphics))
	return &Result{
		Property:   property,
		Kit:        kit,
		KitCreated: created,
		Skipped:    graphics.FailedPlatforms(),
	}, nil
}

// guarded runs one flow under the timeout guard. The run's context is cancelled when the
// guard fires, and whatever the run returns afterwards is discarded.
func (p *Pipeline) guarded(ctx context.Context, flow string, sink ProgressSink, run func(context.Context, *GenerationSession) (*Result, error)) (*Result, error) {
	start := time.Now()
	defer func() { metrics.RunDuration.WithLabelValues(flow).Observe(time.Since(start).Seconds()) }()

	session := NewSession(sink)
	session.Start()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	guard := StartGuard(p.cfg.Timeout, func() {
		session.Expire()
		cancel()
	})
	defer guard.Stop()

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := run(runCtx, session)
		done <- outcome{res, err}
	}()

	var res *Result
	var err error
	select {
	case out := <-done:
		res, err = out.result, out.err
		if !guard.Stop() {
			res, err = nil, p.timeoutError()
		}
	case <-guard.Done():
		res, err = nil, p.timeoutError()
	}

	metrics.RunsTotal.WithLabelValues(flow, outcomeLabel(err)).Inc()
	// Every outcome ends with the session back at idle.
	defer session.Reset()
	if err != nil {
		slog.Error("Generation failed.", "flow", flow, "error", err)
		return nil, err
	}
	session.Complete()
	res.Progress = session.Trail()
	return res, nil
}

func (p *Pipeline) timeoutError() error {
	return fmt.Errorf("%w after %s", ErrTimeout, p.cfg.Timeout)
}

// acquire takes the lease for key. The returned release func is always safe to call.
func (p *Pipeline) acquire(ctx context.Context, key string) (func(), error) {
	if p.leaser == nil {
		return func() {}, nil
	}
	ttl := p.cfg.Timeout + p.cfg.LeaseGrace
	releaseLease, err := p.leaser.Lease(ctx, key, ttl)
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return nil, fmt.Errorf("%w: %s", ErrGenerationInProgress, key)
		}
		return nil, fmt.Errorf("failed to acquire generation lease %s: %w", key, err)
	}
	return func() {
		// The run context may already be cancelled by the guard.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseLease(releaseCtx); err != nil {
			slog.Warn("Failed to release generation lease.", "key", key, "error", err)
		}
	}, nil
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// IntakeLeaseKey identifies a new listing before it has a property id.
func IntakeLeaseKey(userID, address string) string {
	normalized := strings.Trim(nonAlphanumeric.ReplaceAllString(strings.ToLower(address), "-"), "-")
	return fmt.Sprintf("intake:%s:%s", userID, normalized)
}

// PropertyLeaseKey identifies regeneration of an existing property.
func PropertyLeaseKey(propertyID string) string {
	return "property:" + propertyID
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrGenerationInProgress):
		return "in_progress"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "failed"
	}
}

func (p *Pipeline) millis() int64 {
	return p.now().UnixMilli()
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
