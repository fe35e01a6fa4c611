package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/me/phenogen/pkg/cwl"
)

// Version is the server version reported by /health.
const Version = "0.1.0"

type healthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	CWLVersion string `json:"cwl_version"`
	Uptime     string `json:"uptime"`
	Store      string `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	storeStatus := "disabled"
	if s.store != nil {
		storeStatus = "sqlite"
	}
	respondOK(w, reqID, healthResponse{
		Status:     "healthy",
		Version:    Version,
		GoVersion:  runtime.Version(),
		CWLVersion: cwl.Version,
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
		Store:      storeStatus,
	})
}
