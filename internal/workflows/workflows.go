package workflows

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"smartclaim/internal/activities"
	"smartclaim/internal/ingest"
	"smartclaim/internal/util"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetProgress = "GetProgress"
	SignalOverride   = "override"

	defaultOverrideTimeout = time.Hour
)

// PolicyImportWorkflow imports every PDF in a directory for one owner, one
// file at a time. Rejected files wait for an override signal unless the
// input force-accepts them.
func PolicyImportWorkflow(ctx workflow.Context, input PolicyImportInput) (ImportProgress, error) {
	progress := ImportProgress{
		Owner:   input.Owner,
		PerFile: map[string]string{},
		Files:   []ingest.Outcome{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (ImportProgress, error) {
		return progress, nil
	}); err != nil {
		return progress, err
	}

	onDuplicate, err := ingest.ParseDuplicateAction(input.OnDuplicate)
	if err != nil {
		return progress, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2,
			MaximumInterval:        20 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{activities.ExtractionErrorType},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var listOut activities.ListPDFsOutput
	if err := workflow.ExecuteActivity(ctx, "ListPDFsActivity", activities.ListPDFsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return progress, err
	}
	progress.Total = len(listOut.Paths)
	for _, path := range listOut.Paths {
		progress.PerFile[filepath.Base(path)] = string(ingest.StatePending)
	}

	overrides := newOverrideBox(ctx)
	timeout := durationOrDefault(input.OverrideTimeoutSeconds, defaultOverrideTimeout)

	for _, path := range listOut.Paths {
		name := filepath.Base(path)
		progress.record(importFile(ctx, input, onDuplicate, path, name, overrides, timeout, &progress))
	}
	progress.Completed = true

	_ = workflow.ExecuteActivity(ctx, "WriteImportSummaryActivity", activities.WriteImportSummaryInput{
		Owner: input.Owner,
		RunID: workflow.GetInfo(ctx).WorkflowExecution.RunID,
		Summary: map[string]any{
			"owner":           input.Owner,
			"input_dir":       input.InputDir,
			"total":           progress.Total,
			"stored":          progress.Stored,
			"skipped":         progress.Skipped,
			"failed":          progress.Failed,
			"per_file_status": progress.PerFile,
			"generated_at":    workflow.Now(ctx),
		},
	}).Get(ctx, nil)

	return progress, nil
}

func importFile(ctx workflow.Context, input PolicyImportInput, onDuplicate ingest.DuplicateAction, path, name string, overrides *overrideBox, timeout time.Duration, progress *ImportProgress) ingest.Outcome {
	var prep activities.PrepareFileOutput
	if err := workflow.ExecuteActivity(ctx, "PrepareFileActivity", activities.PrepareFileInput{Path: path}).Get(ctx, &prep); err != nil {
		return ingest.Outcome{Name: name, State: ingest.StateFailed, Reason: activityReason(err)}
	}
	c := prep.Classification

	overridden := false
	if !c.Likely {
		progress.PerFile[name] = string(ingest.StateRejected)
		accept := input.ForceAccept
		if !accept {
			progress.Awaiting = name
			accept = overrides.await(ctx, name, timeout)
			progress.Awaiting = ""
		}
		if !accept {
			workflow.GetLogger(ctx).Info("import file skipped by classifier", "name", name)
			return ingest.Outcome{Name: name, State: ingest.StateSkipped, Reason: util.ErrNotPolicy.Error(), Classification: &c}
		}
		overridden = true
	} else {
		progress.PerFile[name] = string(ingest.StateAccepted)
	}

	var stored activities.StoreDocumentOutput
	err := workflow.ExecuteActivity(ctx, "StoreDocumentActivity", activities.StoreDocumentInput{
		Owner:       input.Owner,
		Document:    prep.Document,
		OnDuplicate: onDuplicate,
		Summarize:   true,
	}).Get(ctx, &stored)
	if err != nil {
		return ingest.Outcome{Name: name, State: ingest.StateFailed, Reason: activityReason(err), Classification: &c}
	}
	out := stored.Outcome
	out.Name = name
	out.Overridden = overridden
	out.Classification = &c
	return out
}

// overrideBox collects override decisions by file name, including ones
// that arrive early.
type overrideBox struct {
	ch        workflow.ReceiveChannel
	decisions map[string]bool
}

func newOverrideBox(ctx workflow.Context) *overrideBox {
	return &overrideBox{
		ch:        workflow.GetSignalChannel(ctx, SignalOverride),
		decisions: map[string]bool{},
	}
}

// await blocks until a decision for name arrives or timeout passes. A
// timeout counts as a rejection.
func (b *overrideBox) await(ctx workflow.Context, name string, timeout time.Duration) bool {
	b.drain()
	if v, ok := b.decisions[name]; ok {
		return v
	}
	timerCtx, cancel := workflow.WithCancel(ctx)
	defer cancel()
	timer := workflow.NewTimer(timerCtx, timeout)

	for {
		timedOut := false
		sel := workflow.NewSelector(ctx)
		sel.AddReceive(b.ch, func(c workflow.ReceiveChannel, more bool) {
			var sig OverrideSignal
			c.Receive(ctx, &sig)
			b.put(sig)
		})
		sel.AddFuture(timer, func(workflow.Future) { timedOut = true })
		sel.Select(ctx)

		if v, ok := b.decisions[name]; ok {
			return v
		}
		if timedOut {
			return false
		}
	}
}

func (b *overrideBox) drain() {
	for {
		var sig OverrideSignal
		if !b.ch.ReceiveAsync(&sig) {
			return
		}
		b.put(sig)
	}
}

func (b *overrideBox) put(sig OverrideSignal) {
	name := filepath.Base(strings.TrimSpace(sig.Filename))
	if name == "" || name == "." {
		return
	}
	b.decisions[name] = sig.Accept
}

func activityReason(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return err.Error()
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
