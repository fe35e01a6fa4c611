package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "phenogen API",
		Version:     "v1",
		Description: "Compiles nested phenotype step trees into CWL workflows, tool stubs and job orders",
		Endpoints: []endpointInfo{
			{"/generate", []string{"POST"}, "Compile a step sequence and return {workflow, steps, workflowInputs}; unparseable bodies return {}"},
			{"/api/v1/compilations", []string{"GET", "POST"}, "Compilation history. POST compiles and stores a step tree (?name=); a tree stored before returns the existing record with deduplicated=true and its original name"},
			{"/api/v1/compilations/{id}", []string{"GET", "DELETE"}, "Single compilation with its bundle"},
			{"/api/v1/compilations/{id}/archive", []string{"GET"}, "Download the bundle as ?format=zip or tar.xz"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
