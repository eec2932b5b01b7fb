// Package advice turns a document selection and a user question into a
// prompt, and the model's reply into a StructuredResult.
package advice

import (
	"fmt"
	"strings"

	"smartclaim/internal/models"
)

// Assemble picks the mode for the current selection and returns the full,
// untruncated context for it. An active id that is not in docs counts as
// no selection.
func Assemble(docs []models.Document, activeID string) (models.Mode, string) {
	if activeID != "" {
		for _, d := range docs {
			if d.ID == activeID {
				return models.ModeSingle, d.FullText
			}
		}
	}
	if len(docs) == 0 {
		return models.ModeGeneral, ""
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("\n--- Document: %s ---\n%s", d.Name, d.FullText))
	}
	return models.ModeMulti, strings.Join(parts, "\n\n")
}
