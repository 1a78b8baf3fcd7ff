package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/trellis-pm/trellis/internal/idgen"
	"github.com/trellis-pm/trellis/internal/model"
)

type createWorkspaceRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// handleCreateWorkspace handles POST /v1/workspaces.
func (s *TrellisServer) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Slug == "" {
		writeError(w, http.StatusBadRequest, "slug is required")
		return
	}
	if req.Name == "" {
		req.Name = req.Slug
	}

	id, err := idgen.Generate(idgen.PrefixWorkspace)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ws := &model.Workspace{
		ID:   id,
		Slug: req.Slug,
		Name: req.Name,
	}
	if err := s.store.CreateWorkspace(r.Context(), ws); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

// handleGetWorkspace handles GET /v1/workspaces/{slug}.
func (s *TrellisServer) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.GetWorkspaceBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// resolveProject loads the project from the request path and verifies it
// belongs to the workspace slug in the path. Writes the error response and
// returns nil when the lookup fails.
func (s *TrellisServer) resolveProject(w http.ResponseWriter, r *http.Request) *model.Project {
	ws, err := s.store.GetWorkspaceBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return nil
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	project, err := s.store.GetProject(r.Context(), r.PathValue("project_id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "project not found")
			return nil
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if project.WorkspaceID != ws.ID {
		writeError(w, http.StatusNotFound, "project not found")
		return nil
	}
	return project
}
