package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"smartclaim/internal/config"
	"smartclaim/internal/metrics"
	"smartclaim/internal/providers"
	"smartclaim/internal/session"
	"smartclaim/internal/util"
	"smartclaim/internal/workflows"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Generator is the raw inference call behind /api/analyze.
type Generator interface {
	Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error)
}

// Importer starts and steers headless batch imports. A nil Importer turns
// the /imports routes off.
type Importer interface {
	Start(ctx context.Context, in workflows.PolicyImportInput) (string, error)
	Override(ctx context.Context, workflowID string, sig workflows.OverrideSignal) error
	Progress(ctx context.Context, workflowID string) (workflows.ImportProgress, error)
}

type Server struct {
	cfg      config.Config
	registry *session.Registry
	llm      Generator
	importer Importer
	log      *zap.Logger
}

func NewServer(cfg config.Config, registry *session.Registry, llm Generator, importer Importer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, registry: registry, llm: llm, importer: importer, log: log}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.log))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(metrics.Middleware())
	r.Use(withCORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/api/analyze", s.handleAnalyze)
	r.Post("/sessions/guest", s.handleGuestSession)

	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Post("/logout", s.handleLogout)

		r.Get("/documents", s.handleListDocuments)
		r.Post("/documents", s.handleUpload)
		r.Delete("/documents/{id}", s.handleDeleteDocument)
		r.Get("/documents/{id}/file", s.handleDocumentFile)

		r.Get("/active", s.handleGetActive)
		r.Put("/active", s.handleSetActive)

		r.Post("/ask", s.handleAsk)
		r.Get("/messages", s.handleMessages)
		r.Get("/suggestions", s.handleSuggestions)
		r.Get("/warnings", s.handleWarnings)

		r.Put("/customer", s.handleLoadCustomer)
		r.Post("/imports", s.handleStartImport)
		r.Get("/imports/{id}", s.handleImportProgress)
		r.Post("/imports/{id}/override", s.handleImportOverride)
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

// writeFailure maps a domain error to its status code.
func writeFailure(w http.ResponseWriter, err error) {
	writeErr(w, statusFor(err), err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, util.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, util.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, util.ErrEmptyQuery), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, util.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, errImportsDisabled), errors.Is(err, util.ErrStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, util.ErrNoProvider), errors.Is(err, util.ErrMalformedResponse):
		return http.StatusInternalServerError
	case errors.Is(err, util.ErrInference):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var (
	errBadRequest      = errors.New("invalid request")
	errForbidden       = errors.New("capability does not allow this operation")
	errImportsDisabled = errors.New("batch imports are disabled")
)

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "SC-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusServiceUnavailable:
		code = "SC-API-5030"
		msg = "A backing service is unavailable. Retry shortly."
		if errors.Is(err, errImportsDisabled) {
			msg = "Batch imports are not enabled on this server."
		}
	case status == http.StatusBadGateway:
		code = "SC-API-5020"
		msg = "Upstream provider unavailable. Retry shortly."
	case status >= 500:
		switch {
		case errors.Is(err, util.ErrNoProvider):
			return apiError{Code: "SC-LLM-5001", Message: "No inference provider is configured."}
		case errors.Is(err, util.ErrMalformedResponse):
			return apiError{Code: "SC-LLM-5002", Message: "The model reply was not valid JSON."}
		default:
			return apiError{Code: "SC-API-5000", Message: "Internal server error. Please retry or check service logs."}
		}
	case status == http.StatusBadRequest:
		code = "SC-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusUnauthorized:
		code = "SC-API-4010"
		msg = "A valid session token is required."
	case status == http.StatusForbidden:
		code = "SC-API-4030"
		msg = "This session may not perform the operation."
	case status == http.StatusNotFound:
		code = "SC-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "SC-API-4009"
		msg = "Operation conflicts with current state."
	case status == http.StatusMethodNotAllowed:
		code = "SC-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusRequestEntityTooLarge:
		code = "SC-API-4013"
		msg = "Upload is larger than the server allows."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case errors.Is(err, util.ErrEmptyQuery):
			msg = "Question must not be empty."
		case strings.Contains(raw, "no files provided"):
			msg = "No PDF files were provided."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(raw, "unknown duplicate action"):
			msg = "on_duplicate must be replace, keep_both or skip."
		case strings.Contains(raw, "prompt is required"):
			msg = "Prompt is required."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
	}
	return nil
}
