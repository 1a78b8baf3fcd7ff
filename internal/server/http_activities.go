package server

import (
	"net/http"

	"github.com/trellis-pm/trellis/internal/model"
)

// handleListActivities handles
// GET /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/activities.
func (s *TrellisServer) handleListActivities(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}
	issue := s.resolveIssue(w, r, project)
	if issue == nil {
		return
	}

	activities, err := s.store.ListActivities(r.Context(), issue.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if activities == nil {
		activities = []*model.Activity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": activities})
}

// handleListNotifications handles
// GET /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/notifications.
func (s *TrellisServer) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}
	issue := s.resolveIssue(w, r, project)
	if issue == nil {
		return
	}

	notifications, err := s.store.ListNotifications(r.Context(), issue.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if notifications == nil {
		notifications = []*model.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}
