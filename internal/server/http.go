package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *TrellisServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/workspaces", s.handleCreateWorkspace)
	mux.HandleFunc("GET /v1/workspaces/{slug}", s.handleGetWorkspace)
	mux.HandleFunc("POST /v1/workspaces/{slug}/projects", s.handleCreateProject)
	mux.HandleFunc("GET /v1/workspaces/{slug}/projects", s.handleListProjects)
	mux.HandleFunc("GET /v1/workspaces/{slug}/projects/{project_id}", s.handleGetProject)
	mux.HandleFunc("POST /v1/workspaces/{slug}/projects/{project_id}/issues", s.handleCreateIssue)
	mux.HandleFunc("GET /v1/workspaces/{slug}/projects/{project_id}/issues", s.handleListIssues)
	mux.HandleFunc("GET /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}", s.handleGetIssue)
	mux.HandleFunc("DELETE /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}", s.handleDeleteIssue)
	mux.HandleFunc("POST /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/links", s.handleAddLink)
	mux.HandleFunc("GET /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/relations", s.handleListRelations)
	mux.HandleFunc("POST /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/relations", s.handleCreateRelations)
	mux.HandleFunc("DELETE /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/relations", s.handleRemoveRelation)
	mux.HandleFunc("GET /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/activities", s.handleListActivities)
	mux.HandleFunc("GET /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/notifications", s.handleListNotifications)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *TrellisServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
