package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	dispatcherInstance *services.DispatcherFunction
	once               sync.Once
	initErr            error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("DispatchRegeneration", dispatchRegeneration)
}

func main() {}

// dispatchRegeneration starts the regeneration workflow for the property named in the event.
func dispatchRegeneration(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		dispatcherInstance, initErr = services.NewDispatcher(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var event models.RegenerationEvent
	if err := json.Unmarshal(e.Data(), &event); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "eventId", e.ID(), "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Errors are logged with context in Process; returning one marks the delivery failed.
	_, err := dispatcherInstance.Process(ctx, event)
	return err
}
