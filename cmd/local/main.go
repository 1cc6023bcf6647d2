// Command local serves every function from one process for development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/Lllllllleong/marketingkitflow/internal/gcp"
	"github.com/Lllllllleong/marketingkitflow/internal/handlers"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/joho/godotenv"
)

var (
	kitInstance        *services.KitFunction
	tourInstance       *services.TourFunction
	dispatcherInstance *services.DispatcherFunction
	kitOnce            sync.Once
	tourOnce           sync.Once
	dispatcherOnce     sync.Once
	kitErr             error
	tourErr            error
	dispatcherErr      error
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

	ctx := context.Background()
	routes := map[string]func() error{
		"/generate-kit": func() error {
			return funcframework.RegisterHTTPFunctionContext(ctx, "/generate-kit", handlers.GenerateKit(getKit))
		},
		"/regenerate-kit": func() error {
			return funcframework.RegisterHTTPFunctionContext(ctx, "/regenerate-kit", handlers.RegenerateKit(getKit))
		},
		"/property-tour": func() error {
			return funcframework.RegisterHTTPFunctionContext(ctx, "/property-tour", handlers.PropertyTour(getTour))
		},
		"/properties": func() error {
			return funcframework.RegisterHTTPFunctionContext(ctx, "/properties", handlers.ListProperties(getTour))
		},
		"/metrics": func() error {
			return funcframework.RegisterHTTPFunctionContext(ctx, "/metrics", handlers.Metrics().ServeHTTP)
		},
		"/dispatch-regeneration": func() error {
			return funcframework.RegisterCloudEventFunctionContext(ctx, "/dispatch-regeneration", dispatch)
		},
	}
	for path, register := range routes {
		if err := register(); err != nil {
			slog.Error("Failed to register function", "path", path, "error", err)
			os.Exit(1)
		}
	}

	port := gcp.GetEnv("PORT", "8080")
	slog.Info("Serving functions locally", "port", port)
	if err := funcframework.Start(port); err != nil {
		slog.Error("funcframework.Start failed", "error", err)
		os.Exit(1)
	}
}

func getKit() (handlers.KitService, error) {
	kitOnce.Do(func() {
		kitInstance, kitErr = services.NewKit(context.Background())
	})
	if kitErr != nil {
		return nil, kitErr
	}
	return kitInstance, nil
}

func getTour() (handlers.TourService, error) {
	tourOnce.Do(func() {
		tourInstance, tourErr = services.NewTour(context.Background())
	})
	if tourErr != nil {
		return nil, tourErr
	}
	return tourInstance, nil
}

func dispatch(ctx context.Context, e cloudevents.Event) error {
	dispatcherOnce.Do(func() {
		dispatcherInstance, dispatcherErr = services.NewDispatcher(context.Background())
	})
	if dispatcherErr != nil {
		return dispatcherErr
	}
	var event models.RegenerationEvent
	if err := json.Unmarshal(e.Data(), &event); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	_, err := dispatcherInstance.Process(ctx, event)
	return err
}
