package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/marketingkitflow/internal/metrics"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/pipeline"
	"github.com/googleapis/gax-go/v2"
)

// ExecutionCreator starts workflow executions. *executions.Client satisfies it.
type ExecutionCreator interface {
	CreateExecution(ctx context.Context, req *executionspb.CreateExecutionRequest, opts ...gax.CallOption) (*executionspb.Execution, error)
}

// DispatcherFunction turns regeneration events into workflow executions that call the
// regenerate-kit function.
type DispatcherFunction struct {
	executionsClient ExecutionCreator
	config           DispatcherConfig
}

func NewDispatcher(ctx context.Context) (*DispatcherFunction, error) {
	config, err := loadDispatcherConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	executionsClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	slog.Info("Regeneration dispatcher initialized.", "workflowId", config.WorkflowID)
	return &DispatcherFunction{executionsClient: executionsClient, config: *config}, nil
}

func NewDispatcherWithClient(client ExecutionCreator, config DispatcherConfig) *DispatcherFunction {
	return &DispatcherFunction{executionsClient: client, config: config}
}

// Process starts one workflow execution and returns its name.
func (f *DispatcherFunction) Process(ctx context.Context, e models.RegenerationEvent) (string, error) {
	logCtx := slog.With("propertyId", e.PropertyID, "userId", e.UserID)
	if strings.TrimSpace(e.PropertyID) == "" {
		return "", fmt.Errorf("%w: regeneration event has no property id", pipeline.ErrValidation)
	}

	payloadBytes, err := json.Marshal(models.RegenerateKitRequest{PropertyID: e.PropertyID, UserID: e.UserID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", f.config.ProjectID, f.config.WorkflowLocation, f.config.WorkflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	execution, err := f.executionsClient.CreateExecution(ctx, req)
	if err != nil {
		metrics.DispatchesTotal.WithLabelValues("failed").Inc()
		logCtx.Error("Failed to trigger workflow execution.", "error", err)
		return "", fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	metrics.DispatchesTotal.WithLabelValues("success").Inc()
	logCtx.Info("Regeneration workflow started.", "execution", execution.GetName())
	return execution.GetName(), nil
}

func (f *DispatcherFunction) Close() error {
	if c, ok := f.executionsClient.(*executions.Client); ok {
		return c.Close()
	}
	return nil
}
