package api

import (
	"fmt"
	"net/http"
	"strings"

	"smartclaim/internal/workflows"

	"github.com/go-chi/chi/v5"
)

func (s *Server) importAllowed(w http.ResponseWriter, r *http.Request) bool {
	if s.importer == nil {
		writeFailure(w, errImportsDisabled)
		return false
	}
	if !sessionFrom(r.Context()).Capability().CanImport() {
		writeFailure(w, errForbidden)
		return false
	}
	return true
}

// handleStartImport imports a server-side directory into the caller's owner
// key. Documents reach open sessions through the store subscription.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	if !s.importAllowed(w, r) {
		return
	}
	var req struct {
		InputDir    string `json:"input_dir"`
		ForceAccept bool   `json:"force_accept"`
		OnDuplicate string `json:"on_duplicate"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if strings.TrimSpace(req.InputDir) == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("%w: input_dir is required", errBadRequest))
		return
	}
	id, err := s.importer.Start(r.Context(), workflows.PolicyImportInput{
		Owner:       sessionFrom(r.Context()).Capability().Owner,
		InputDir:    req.InputDir,
		ForceAccept: req.ForceAccept,
		OnDuplicate: req.OnDuplicate,
	})
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"workflow_id": id})
}

func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	if !s.importAllowed(w, r) {
		return
	}
	p, err := s.importer.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if p.Owner != sessionFrom(r.Context()).Capability().Owner {
		writeErr(w, http.StatusNotFound, fmt.Errorf("import %s not found", chi.URLParam(r, "id")))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleImportOverride(w http.ResponseWriter, r *http.Request) {
	if !s.importAllowed(w, r) {
		return
	}
	var sig workflows.OverrideSignal
	if err := decodeJSON(r, &sig); err != nil {
		writeFailure(w, err)
		return
	}
	if strings.TrimSpace(sig.Filename) == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("%w: filename is required", errBadRequest))
		return
	}
	if err := s.importer.Override(r.Context(), chi.URLParam(r, "id"), sig); err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
