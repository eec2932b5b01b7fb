package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"smartclaim/internal/ingest"
	"smartclaim/internal/models"
	"smartclaim/internal/util"

	"github.com/go-chi/chi/v5"
)

type documentView struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Summary            string    `json:"summary,omitempty"`
	SuggestedQuestions []string  `json:"suggested_questions,omitempty"`
	Pages              int       `json:"pages"`
	HasFile            bool      `json:"has_file"`
	Messages           int       `json:"messages"`
	UploadedAt         time.Time `json:"uploaded_at"`
}

func toDocumentView(d models.Document) documentView {
	return documentView{
		ID:                 d.ID,
		Name:               d.Name,
		Summary:            d.Summary,
		SuggestedQuestions: d.SuggestedQuestions,
		Pages:              len(d.Pages),
		HasFile:            d.FileHandle != "",
		Messages:           len(d.ChatHistory),
		UploadedAt:         d.UploadedAt,
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Snapshot()
	docs := make([]documentView, 0, len(snap.Documents))
	for _, d := range snap.Documents {
		docs = append(docs, toDocumentView(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"active_id": snap.ActiveID,
		"mode":      snap.Mode(),
	})
}

// handleUpload runs a multipart batch through the ingest pipeline. Rejected
// files are skipped unless force=true or their name is listed in accept;
// a client re-submits those after asking the user.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.MaxUploadMB) << 20
	if limit <= 0 {
		limit = 20 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeErr(w, http.StatusBadRequest, fmt.Errorf("%w: parse multipart: %v", errBadRequest, err))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("%w: no files provided", errBadRequest))
		return
	}

	onDuplicate, err := ingest.ParseDuplicateAction(r.FormValue("on_duplicate"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	force, _ := strconv.ParseBool(r.FormValue("force"))
	var decider ingest.Decider = ingest.StaticDecider{ForceAccept: force, OnDuplicate: onDuplicate}
	if accepted := r.MultipartForm.Value["accept"]; len(accepted) > 0 && !force {
		set := ingest.OverrideSet{Accept: map[string]bool{}, OnDuplicate: onDuplicate}
		for _, name := range accepted {
			set.Accept[strings.TrimSpace(name)] = true
		}
		decider = set
	}

	files := make([]ingest.File, 0, len(headers))
	for _, h := range headers {
		data, err := readPart(h)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("%w: read %s: %v", errBadRequest, h.Filename, err))
			return
		}
		files = append(files, ingest.File{Name: h.Filename, Data: data})
	}

	sess := sessionFrom(r.Context())
	report := sess.Upload(r.Context(), files, decider)
	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"report":    report,
		"active_id": snap.ActiveID,
	})
}

func readPart(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).Remove(chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDocumentFile(w http.ResponseWriter, r *http.Request) {
	data, name, err := sessionFrom(r.Context()).File(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	etag := `"` + util.SHA256Hex(data) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleGetActive(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"id": snap.ActiveID, "mode": snap.Mode()})
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.SetActive(strings.TrimSpace(req.ID)); err != nil {
		writeFailure(w, err)
		return
	}
	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"id": snap.ActiveID, "mode": snap.Mode()})
}

// handleLoadCustomer shows an assisted customer's policy records in the
// agent's session.
func (s *Server) handleLoadCustomer(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if !sess.Capability().CanImport() {
		writeFailure(w, errForbidden)
		return
	}
	var c models.Customer
	if err := decodeJSON(r, &c); err != nil {
		writeFailure(w, err)
		return
	}
	added := sess.LoadCustomer(c)
	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"added": added, "active_id": snap.ActiveID})
}
