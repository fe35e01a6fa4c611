package server

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/me/phenogen/internal/bundle"
	"github.com/me/phenogen/internal/compiler"
	"github.com/me/phenogen/internal/naming"
	"github.com/me/phenogen/pkg/model"
)

// handleCreateCompilation compiles and persists a step tree. Resubmitting a
// tree that was already compiled returns the stored compilation with 200 and
// "deduplicated": true; the stored name is kept and ?name= is ignored.
// POST /api/v1/compilations?name=<name>
func (s *Server) handleCreateCompilation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	data, err := io.ReadAll(r.Body)
	if err != nil {
		bodyError(w, reqID, err)
		return
	}
	steps, err := s.parser.ParseSteps(data)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "invalid step sequence: " + err.Error(),
		})
		return
	}
	if apiErr := s.validator.Validate(steps); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	hash, err := compiler.ContentHash(steps)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	existing, err := s.store.GetCompilationByHash(r.Context(), hash)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if existing != nil {
		s.respondDeduplicated(w, reqID, existing, r.URL.Query().Get("name"))
		return
	}

	comp, err := s.compiler.NewCompilation(r.URL.Query().Get("name"), steps)
	if err != nil {
		respondCompileError(w, reqID, err)
		return
	}
	if err := s.store.CreateCompilation(r.Context(), comp); err != nil {
		// A concurrent request may have stored the same tree since the lookup.
		if existing, getErr := s.store.GetCompilationByHash(r.Context(), hash); getErr == nil && existing != nil {
			s.respondDeduplicated(w, reqID, existing, r.URL.Query().Get("name"))
			return
		}
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	s.logger.Info("compilation created", "id", comp.ID, "name", comp.Name, "steps", comp.StepCount)
	respondCreated(w, reqID, comp)
}

func (s *Server) respondDeduplicated(w http.ResponseWriter, reqID string, existing *model.Compilation, requestedName string) {
	s.logger.Info("compilation deduplicated", "id", existing.ID, "hash", existing.ContentHash, "requested_name", requestedName)
	existing.Deduplicated = true
	respondOK(w, reqID, existing)
}

// GET /api/v1/compilations?limit=&offset=&name=
func (s *Server) handleListCompilations(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts, apiErr := listOptions(r)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	list, total, err := s.store.ListCompilations(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if list == nil {
		list = []*model.Compilation{}
	}
	opts.Clamp()

	respondList(w, reqID, list, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}

// GET /api/v1/compilations/{id}
func (s *Server) handleGetCompilation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	comp, ok := s.loadCompilation(w, r)
	if !ok {
		return
	}
	respondOK(w, reqID, comp)
}

// DELETE /api/v1/compilations/{id}
func (s *Server) handleDeleteCompilation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	comp, ok := s.loadCompilation(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteCompilation(r.Context(), comp.ID); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	s.logger.Info("compilation deleted", "id", comp.ID)
	respondOK(w, reqID, map[string]any{"id": comp.ID, "deleted": true})
}

// handleGetCompilationArchive streams the bundle as a zip or tar.xz archive.
// GET /api/v1/compilations/{id}/archive?format=zip|tar.xz
func (s *Server) handleGetCompilationArchive(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	format, err := bundle.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: err.Error(),
			Details: []model.FieldError{{Field: "format", Message: "must be zip or tar.xz"}},
		})
		return
	}
	comp, ok := s.loadCompilation(w, r)
	if !ok {
		return
	}

	name := archiveName(comp)
	var buf bytes.Buffer
	if err := bundle.WriteArchive(&buf, comp.Bundle, name, format); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+format.Ext()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// loadCompilation fetches the {id} compilation, writing the error response
// itself when it cannot.
func (s *Server) loadCompilation(w http.ResponseWriter, r *http.Request) (*model.Compilation, bool) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	comp, err := s.store.GetCompilation(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return nil, false
	}
	if comp == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("compilation", id))
		return nil, false
	}
	return comp, true
}

func listOptions(r *http.Request) (model.ListOptions, *model.APIError) {
	opts := model.DefaultListOptions()
	q := r.URL.Query()
	var errs []model.FieldError
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "limit", Message: "must be an integer"})
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "offset", Message: "must be an integer"})
		}
		opts.Offset = n
	}
	opts.Name = q.Get("name")
	if len(errs) > 0 {
		return opts, model.NewValidationError("invalid list parameters", errs...)
	}
	return opts, nil
}

// archiveName is the top-level directory and file stem of an archive.
func archiveName(c *model.Compilation) string {
	if c.Name == "" {
		return c.ID
	}
	return naming.StepID(c.Name, 0)
}
