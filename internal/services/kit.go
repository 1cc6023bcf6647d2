package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/marketingkitflow/internal/brochure"
	"github.com/Lllllllleong/marketingkitflow/internal/gcp"
	"github.com/Lllllllleong/marketingkitflow/internal/imagegen"
	"github.com/Lllllllleong/marketingkitflow/internal/lock"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/pipeline"
	"github.com/Lllllllleong/marketingkitflow/internal/repository"
	"github.com/redis/go-redis/v9"
)

// KitFunction holds the dependencies for generating and regenerating marketing kits.
type KitFunction struct {
	pipeline        *pipeline.Pipeline
	firestoreClient *firestore.Client
	storageClient   *storage.Client
	vertexClient    *gcp.VertexClient
	redisClient     *redis.Client
}

// NewKit creates a new KitFunction instance with all clients wired.
func NewKit(ctx context.Context) (*KitFunction, error) {
	config, err := loadKitConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion, config.ContentModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	imageClient, err := imagegen.NewClient(imagegen.Config{
		BaseURL: config.ImageAPIBaseURL,
		APIKey:  config.ImageAPIKey,
		Model:   config.ImageModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image client: %w", err)
	}

	assets := gcp.NewAssetBucket(storageClient, config.AssetsBucket, config.PublicAssetBaseURL)
	opts := []pipeline.Option{
		pipeline.WithAssetUploader(assets),
		pipeline.WithBrochureBuilder(brochure.NewBuilder(assets, nil)),
	}

	f := &KitFunction{
		firestoreClient: firestoreClient,
		storageClient:   storageClient,
		vertexClient:    vertexClient,
	}
	if config.RedisAddr != "" {
		rdb, err := lock.NewRedisClient(ctx, lock.Config{Addr: config.RedisAddr, Password: config.RedisPassword})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		f.redisClient = rdb
		opts = append(opts, pipeline.WithLeaser(lock.NewLocker(rdb, "marketingkit:lock:")))
	} else {
		slog.Warn("REDIS_ADDR not set, generation runs are not leased.")
	}

	store := repository.NewFirestoreStore(firestoreClient, config.Collections)
	f.pipeline = pipeline.New(store, vertexClient, imageClient, pipeline.Config{
		Origin:             config.AppOrigin,
		Timeout:            config.Timeout,
		MaxReferenceImages: config.MaxReferenceImages,
	}, opts...)

	slog.Info("Kit generator initialized.", "timeout", config.Timeout.String(), "leasing", f.redisClient != nil)
	return f, nil
}

// NewKitWithPipeline wraps an already configured pipeline.
func NewKitWithPipeline(p *pipeline.Pipeline) *KitFunction {
	return &KitFunction{pipeline: p}
}

// Generate handles the new-listing flow for one intake submission.
func (f *KitFunction) Generate(ctx context.Context, req *models.GenerateKitRequest) (*models.GenerateKitResponse, error) {
	logCtx := slog.With("userId", req.User.ID, "executionId", req.ExecutionID)
	logCtx.Info("Starting marketing kit generation.", "files", len(req.Files))

	res, err := f.pipeline.Generate(ctx, pipeline.GenerateRequest{
		Principal: req.User,
		Intake:    req.Property,
		Files:     req.Files,
	}, progressLogger(logCtx))
	if err != nil {
		return nil, err
	}
	return toResponse(res), nil
}

// Regenerate handles the regeneration flow for an existing property.
func (f *KitFunction) Regenerate(ctx context.Context, req *models.RegenerateKitRequest) (*models.GenerateKitResponse, error) {
	logCtx := slog.With("propertyId", req.PropertyID, "userId", req.UserID, "executionId", req.ExecutionID)
	logCtx.Info("Starting marketing kit regeneration.")

	res, err := f.pipeline.Regenerate(ctx, pipeline.RegenerateRequest{
		PropertyID: req.PropertyID,
		UserID:     req.UserID,
	}, progressLogger(logCtx))
	if err != nil {
		return nil, err
	}
	return toResponse(res), nil
}

func progressLogger(logCtx *slog.Logger) pipeline.ProgressSink {
	return func(p pipeline.Progress) {
		logCtx.Debug("Progress.", "step", p.Step, "percent", p.Percent, "state", string(p.State))
	}
}

func toResponse(res *pipeline.Result) *models.GenerateKitResponse {
	return &models.GenerateKitResponse{
		Status:     "success",
		PropertyID: res.Property.ID,
		KitCreated: res.KitCreated,
		Kit:        res.Kit,
		Progress:   res.Progress,
		Skipped:    res.Skipped,
	}
}

func (f *KitFunction) Close() error {
	var errs []error
	if f.vertexClient != nil {
		errs = append(errs, f.vertexClient.Close())
	}
	if f.storageClient != nil {
		errs = append(errs, f.storageClient.Close())
	}
	if f.firestoreClient != nil {
		errs = append(errs, f.firestoreClient.Close())
	}
	if f.redisClient != nil {
		errs = append(errs, f.redisClient.Close())
	}
	return errors.Join(errs...)
}
