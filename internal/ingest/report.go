package ingest

import (
	"smartclaim/internal/metrics"
	"smartclaim/internal/policy"
)

// State is where a file ended up in the ingest state machine:
// pending -> accepted|rejected -> (override) -> stored|skipped, or failed.
type State string

const (
	StatePending  State = "pending"
	StateAccepted State = "accepted"
	StateRejected State = "rejected"
	StateStored   State = "stored"
	StateSkipped  State = "skipped"
	StateFailed   State = "failed"
)

type Outcome struct {
	Name           string                 `json:"name"`
	State          State                  `json:"state"`
	DocumentID     string                 `json:"document_id,omitempty"`
	StoredAs       string                 `json:"stored_as,omitempty"`
	ReplacedID     string                 `json:"replaced_id,omitempty"`
	Overridden     bool                   `json:"overridden,omitempty"`
	Reason         string                 `json:"reason,omitempty"`
	Classification *policy.Classification `json:"classification,omitempty"`
}

// Report is the per-batch tally shown once every file has been handled.
type Report struct {
	Files     []Outcome `json:"files"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
}

func (r *Report) Add(o Outcome) {
	r.Files = append(r.Files, o)
	switch o.State {
	case StateStored:
		r.Succeeded++
	case StateSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	metrics.IngestFilesTotal.WithLabelValues(string(o.State)).Inc()
}

func (r Report) Stored() []Outcome {
	out := make([]Outcome, 0, r.Succeeded)
	for _, o := range r.Files {
		if o.State == StateStored {
			out = append(out, o)
		}
	}
	return out
}
