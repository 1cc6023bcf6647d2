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
	tourInstance *services.TourFunction
	once         sync.Once
	initErr      error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandlePropertyTour", handlers.PropertyTour(getTour))
	functions.HTTP("HandleListProperties", handlers.ListProperties(getTour))
}

func main() {}

func getTour() (handlers.TourService, error) {
	once.Do(func() {
		tourInstance, initErr = services.NewTour(context.Background())
	})
	if initErr != nil {
		return nil, initErr
	}
	return tourInstance, nil
}
