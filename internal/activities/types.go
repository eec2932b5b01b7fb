package activities

import (
	"smartclaim/internal/ingest"
	"smartclaim/internal/models"
	"smartclaim/internal/policy"
)

type ListPDFsInput struct {
	InputDir string `json:"input_dir"`
}

type ListPDFsOutput struct {
	Paths []string `json:"paths"`
}

type PrepareFileInput struct {
	Path string `json:"path"`
}

type PrepareFileOutput struct {
	Document       models.Document       `json:"document"`
	Classification policy.Classification `json:"classification"`
}

type StoreDocumentInput struct {
	Owner       string                 `json:"owner"`
	Document    models.Document        `json:"document"`
	OnDuplicate ingest.DuplicateAction `json:"on_duplicate"`
	Summarize   bool                   `json:"summarize"`
}

type StoreDocumentOutput struct {
	Outcome ingest.Outcome `json:"outcome"`
}

type WriteImportSummaryInput struct {
	Owner   string         `json:"owner"`
	RunID   string         `json:"run_id"`
	Summary map[string]any `json:"summary"`
}

type WriteImportSummaryOutput struct {
	Path string `json:"path"`
}
