package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

// Importer starts and steers PolicyImportWorkflow runs.
type Importer struct {
	client          tclient.Client
	taskQueue       string
	overrideTimeout int
}

func NewImporter(c tclient.Client, taskQueue string, overrideTimeoutSeconds int) *Importer {
	return &Importer{client: c, taskQueue: taskQueue, overrideTimeout: overrideTimeoutSeconds}
}

// Start launches an import and returns its workflow id.
func (i *Importer) Start(ctx context.Context, in PolicyImportInput) (string, error) {
	if strings.TrimSpace(in.InputDir) == "" {
		return "", fmt.Errorf("input_dir is required")
	}
	if in.OverrideTimeoutSeconds <= 0 {
		in.OverrideTimeoutSeconds = i.overrideTimeout
	}
	id := "policy-import-" + sanitizeID(in.Owner) + "-" + uuid.NewString()[:8]
	run, err := i.client.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                                       id,
		TaskQueue:                                i.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, PolicyImportWorkflow, in)
	if err != nil {
		return "", fmt.Errorf("start import workflow: %w", err)
	}
	return run.GetID(), nil
}

func (i *Importer) Override(ctx context.Context, workflowID string, sig OverrideSignal) error {
	if err := i.client.SignalWorkflow(ctx, workflowID, "", SignalOverride, sig); err != nil {
		return fmt.Errorf("signal import %s: %w", workflowID, err)
	}
	return nil
}

func (i *Importer) Progress(ctx context.Context, workflowID string) (ImportProgress, error) {
	v, err := i.client.QueryWorkflow(ctx, workflowID, "", QueryGetProgress)
	if err != nil {
		return ImportProgress{}, fmt.Errorf("query import %s: %w", workflowID, err)
	}
	var p ImportProgress
	if err := v.Get(&p); err != nil {
		return ImportProgress{}, fmt.Errorf("decode import progress: %w", err)
	}
	return p, nil
}

func sanitizeID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	if s == "" {
		return "anonymous"
	}
	return s
}
