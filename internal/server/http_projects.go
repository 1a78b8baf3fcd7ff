package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trellis-pm/trellis/internal/events"
	"github.com/trellis-pm/trellis/internal/idgen"
	"github.com/trellis-pm/trellis/internal/model"
)

type createProjectRequest struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	CreatedBy  string `json:"created_by"`
}

// handleCreateProject handles POST /v1/workspaces/{slug}/projects.
func (s *TrellisServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.GetWorkspaceBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Identifier == "" {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	id, err := idgen.Generate(idgen.PrefixProject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	project := &model.Project{
		ID:          id,
		Name:        req.Name,
		Identifier:  req.Identifier,
		WorkspaceID: ws.ID,
		CreatedBy:   req.CreatedBy,
	}
	if err := s.store.CreateProject(r.Context(), project); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.publisher.Publish(r.Context(), events.TopicProjectCreated, events.ProjectCreated{Project: project}); err != nil {
		// Event emission is best-effort.
		slogWarnPublish(events.TopicProjectCreated, err)
	}
	writeJSON(w, http.StatusCreated, project)
}

// handleListProjects handles GET /v1/workspaces/{slug}/projects.
func (s *TrellisServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.GetWorkspaceBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	projects, err := s.store.ListProjects(r.Context(), ws.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// handleGetProject handles GET /v1/workspaces/{slug}/projects/{project_id}.
func (s *TrellisServer) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}
	writeJSON(w, http.StatusOK, project)
}
