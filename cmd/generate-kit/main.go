package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/marketingkitflow/internal/handlers"
	"github.com/Lllllllleong/marketingkitflow/internal/services"
)

var (
	kitInstance *services.KitFunction
	once        sync.Once
	initErr     error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleGenerateKit", handlers.GenerateKit(getKit))
	functions.HTTP("HandleMetrics", handlers.Metrics().ServeHTTP)
}

func main() {}

func getKit() (handlers.KitService, error) {
	once.Do(func() {
		kitInstance, initErr = services.NewKit(context.Background())
	})
	if initErr != nil {
		return nil, initErr
	}
	return kitInstance, nil
}
