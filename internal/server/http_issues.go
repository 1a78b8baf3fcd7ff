package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/trellis-pm/trellis/internal/events"
	"github.com/trellis-pm/trellis/internal/idgen"
	"github.com/trellis-pm/trellis/internal/model"
	"github.com/trellis-pm/trellis/internal/store"
)

type createIssueRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	State       string   `json:"state"`
	Priority    string   `json:"priority"`
	ParentID    string   `json:"parent_id"`
	SortOrder   float64  `json:"sort_order"`
	AssigneeIDs []string `json:"assignee_ids"`
	LabelIDs    []string `json:"label_ids"`
	CreatedBy   string   `json:"created_by"`
}

// handleCreateIssue handles POST /v1/workspaces/{slug}/projects/{project_id}/issues.
func (s *TrellisServer) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}

	var req createIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.State == "" {
		req.State = string(model.StateBacklog)
	}
	if !model.IssueState(req.State).IsValid() {
		writeError(w, http.StatusBadRequest, "invalid state: "+req.State)
		return
	}
	if req.Priority == "" {
		req.Priority = string(model.PriorityNone)
	}
	if !model.Priority(req.Priority).IsValid() {
		writeError(w, http.StatusBadRequest, "invalid priority: "+req.Priority)
		return
	}

	id, err := idgen.Generate(idgen.PrefixIssue)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	issue := &model.Issue{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		State:       model.IssueState(req.State),
		Priority:    model.Priority(req.Priority),
		SortOrder:   req.SortOrder,
		ProjectID:   project.ID,
		WorkspaceID: project.WorkspaceID,
		ParentID:    req.ParentID,
		CreatedBy:   req.CreatedBy,
	}

	// Insert the issue together with its assignees and labels atomically.
	err = s.store.RunInTransaction(r.Context(), func(tx store.Store) error {
		if err := tx.CreateIssue(r.Context(), issue); err != nil {
			return err
		}
		for _, memberID := range req.AssigneeIDs {
			if err := tx.AddAssignee(r.Context(), issue.ID, memberID); err != nil {
				return err
			}
		}
		for _, labelID := range req.LabelIDs {
			if err := tx.AddLabel(r.Context(), issue.ID, labelID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	issue.AssigneeIDs = req.AssigneeIDs
	issue.LabelIDs = req.LabelIDs

	activity := newActivity(model.ActivityIssueCreated, req.CreatedBy, issue.ID, project, marshalSnapshot(req), nil, r)
	s.recordAndPublish(r.Context(), activity, events.TopicIssueCreated, events.IssueCreated{Issue: issue})

	writeJSON(w, http.StatusCreated, issue)
}

// handleGetIssue handles GET /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}.
func (s *TrellisServer) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}
	issue := s.resolveIssue(w, r, project)
	if issue == nil {
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

// handleListIssues handles GET /v1/workspaces/{slug}/projects/{project_id}/issues.
func (s *TrellisServer) handleListIssues(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}

	q := r.URL.Query()
	filter := model.IssueFilter{
		ProjectID: project.ID,
		ParentID:  q.Get("parent_id"),
		Search:    q.Get("search"),
		Sort:      q.Get("sort"),
	}
	for _, s := range q["state"] {
		st := model.IssueState(s)
		if !st.IsValid() {
			writeError(w, http.StatusBadRequest, "invalid state: "+s)
			return
		}
		filter.State = append(filter.State, st)
	}
	for _, p := range q["priority"] {
		pr := model.Priority(p)
		if !pr.IsValid() {
			writeError(w, http.StatusBadRequest, "invalid priority: "+p)
			return
		}
		filter.Priority = append(filter.Priority, pr)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	issues, total, err := s.store.ListIssues(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if issues == nil {
		issues = []*model.Issue{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"issues": issues,
		"total":  total,
	})
}

// handleDeleteIssue handles DELETE /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}.
// Issues are soft-deleted: the row stays but disappears from every query.
func (s *TrellisServer) handleDeleteIssue(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}
	issue := s.resolveIssue(w, r, project)
	if issue == nil {
		return
	}

	if err := s.store.DeleteIssue(r.Context(), issue.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "issue not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	activity := newActivity(model.ActivityIssueDeleted, r.URL.Query().Get("actor"), issue.ID, project, nil, marshalSnapshot(issue), r)
	s.recordAndPublish(r.Context(), activity, events.TopicIssueDeleted, events.IssueDeleted{
		IssueID:   issue.ID,
		ProjectID: project.ID,
	})

	w.WriteHeader(http.StatusNoContent)
}

type addLinkRequest struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	CreatedBy string `json:"created_by"`
}

// handleAddLink handles POST /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/links.
func (s *TrellisServer) handleAddLink(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}
	issue := s.resolveIssue(w, r, project)
	if issue == nil {
		return
	}

	var req addLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	id, err := idgen.Generate(idgen.PrefixLink)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	link := &model.IssueLink{
		ID:        id,
		IssueID:   issue.ID,
		Title:     req.Title,
		URL:       req.URL,
		CreatedBy: req.CreatedBy,
	}
	if err := s.store.AddLink(r.Context(), link); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

// resolveIssue loads the issue from the request path and verifies it belongs
// to the resolved project. Writes the error response and returns nil when the
// lookup fails.
func (s *TrellisServer) resolveIssue(w http.ResponseWriter, r *http.Request, project *model.Project) *model.Issue {
	issue, err := s.store.GetIssue(r.Context(), r.PathValue("issue_id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "issue not found")
			return nil
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if issue.ProjectID != project.ID {
		writeError(w, http.StatusNotFound, "issue not found")
		return nil
	}
	return issue
}
