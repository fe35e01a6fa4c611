package server

import (
	"errors"
	"io"
	"net/http"
)

// handleGenerate compiles a step sequence and returns the bare bundle
// {workflow, steps, workflowInputs}. A body that does not parse as a
// non-empty step sequence yields 200 {} without compiling.
// POST /generate
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			bodyError(w, reqID, err)
			return
		}
		s.logger.Warn("generate: unreadable body", "error", err, "request_id", reqID)
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	steps, err := s.parser.ParseSteps(data)
	if err != nil || len(steps) == 0 {
		s.logger.Info("generate: body is not a step sequence", "error", err, "request_id", reqID)
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	b, err := s.compiler.Compile(steps)
	if err != nil {
		s.logger.Info("generate: compile failed", "error", err, "request_id", reqID)
		respondCompileError(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
