package workflows

import "smartclaim/internal/ingest"

type PolicyImportInput struct {
	Owner                  string `json:"owner"`
	InputDir               string `json:"input_dir"`
	ForceAccept            bool   `json:"force_accept"`
	OnDuplicate            string `json:"on_duplicate"`
	OverrideTimeoutSeconds int    `json:"override_timeout_seconds"`
}

// OverrideSignal answers the question raised for a rejected file. It may be
// sent before the workflow reaches that file.
type OverrideSignal struct {
	Filename string `json:"filename"`
	Accept   bool   `json:"accept"`
}

type ImportProgress struct {
	Owner     string            `json:"owner"`
	Total     int               `json:"total"`
	Done      int               `json:"done"`
	Stored    int               `json:"stored"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
	Awaiting  string            `json:"awaiting_override,omitempty"`
	PerFile   map[string]string `json:"per_file_status"`
	Files     []ingest.Outcome  `json:"files"`
	Completed bool              `json:"completed"`
}

func (p *ImportProgress) record(o ingest.Outcome) {
	p.Files = append(p.Files, o)
	p.PerFile[o.Name] = string(o.State)
	p.Done++
	switch o.State {
	case ingest.StateStored:
		p.Stored++
	case ingest.StateSkipped:
		p.Skipped++
	default:
		p.Failed++
	}
}
