package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"smartclaim/internal/logger"
	"smartclaim/internal/providers"
	"smartclaim/internal/util"

	"go.uber.org/zap"
)

type analyzeRequest struct {
	Prompt            string `json:"prompt"`
	SystemInstruction string `json:"systemInstruction,omitempty"`
}

// handleAnalyze is a thin inference proxy: one prompt in, the model's JSON
// text out. It needs no session.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("%w: prompt is required", errBadRequest))
		return
	}
	if s.llm == nil {
		writeFailure(w, util.ErrNoProvider)
		return
	}

	prompt := req.Prompt
	if req.SystemInstruction != "" {
		prompt = req.SystemInstruction + "\n\nUser Query: " + req.Prompt
	}
	resp, info, err := s.llm.Generate(r.Context(), providers.GenerateRequest{Operation: "analyze", Prompt: prompt, JSON: true})
	if err != nil {
		logger.FromContext(r.Context()).Warn("analyze inference failed", zap.Error(err))
		writeFailure(w, err)
		return
	}
	if !json.Valid([]byte(strings.TrimSpace(resp.Text))) {
		logger.FromContext(r.Context()).Warn("analyze reply is not JSON",
			zap.String("provider", info.Name),
			zap.String("preview", util.Preview(resp.Text, 120)),
		)
		writeFailure(w, util.ErrMalformedResponse)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": resp.Text})
}
