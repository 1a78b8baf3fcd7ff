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

type createRelationsRequest struct {
	RelationType string   `json:"relation_type"`
	Issues       []string `json:"issues"`
	CreatedBy    string   `json:"created_by"`
}

type removeRelationRequest struct {
	RelationType string `json:"relation_type"`
	RelatedIssue string `json:"related_issue"`
	Actor        string `json:"actor"`
}

// handleListRelations handles
// GET /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/relations.
// Relations are returned grouped by type as seen from the queried issue.
func (s *TrellisServer) handleListRelations(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}
	issue := s.resolveIssue(w, r, project)
	if issue == nil {
		return
	}

	groups, err := s.store.ListIssueRelations(r.Context(), issue.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// handleCreateRelations handles
// POST /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/relations.
// Creates one edge per target issue. "blocking" is stored as the inverted
// blocked_by edge. Edges that already exist are skipped, and the response
// carries only the edges actually inserted.
func (s *TrellisServer) handleCreateRelations(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}
	issue := s.resolveIssue(w, r, project)
	if issue == nil {
		return
	}

	var req createRelationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	relType := model.RelationType(req.RelationType)
	if !relType.IsApplied() {
		writeError(w, http.StatusBadRequest, "invalid relation_type: "+req.RelationType)
		return
	}
	if len(req.Issues) == 0 {
		writeError(w, http.StatusBadRequest, "issues is required")
		return
	}
	for _, target := range req.Issues {
		if target == issue.ID {
			writeError(w, http.StatusBadRequest, "an issue cannot relate to itself")
			return
		}
	}

	relations := make([]*model.Relation, 0, len(req.Issues))
	for _, target := range req.Issues {
		id, err := idgen.Generate(idgen.PrefixRelation)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		sourceID, relatedID, stored := model.StorageEdge(issue.ID, relType, target)
		relations = append(relations, &model.Relation{
			ID:             id,
			IssueID:        sourceID,
			RelatedIssueID: relatedID,
			RelationType:   stored,
			ProjectID:      project.ID,
			WorkspaceID:    project.WorkspaceID,
			CreatedBy:      req.CreatedBy,
			UpdatedBy:      req.CreatedBy,
		})
	}

	created, err := s.store.CreateRelations(r.Context(), relations)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if created == nil {
		created = []*model.Relation{}
	}

	activity := newActivity(model.ActivityRelationCreated, req.CreatedBy, issue.ID, project, marshalSnapshot(req), nil, r)
	s.recordAndPublish(r.Context(), activity, events.TopicRelationCreated, events.RelationActivity{
		Activity:  activity,
		Relations: created,
	})

	writeJSON(w, http.StatusCreated, map[string]any{"relations": created})
}

// handleRemoveRelation handles
// DELETE /v1/workspaces/{slug}/projects/{project_id}/issues/{issue_id}/relations.
// The stored edge is located via the same direction normalization used on
// create, snapshotted into the activity record, and hard-deleted.
func (s *TrellisServer) handleRemoveRelation(w http.ResponseWriter, r *http.Request) {
	project := s.resolveProject(w, r)
	if project == nil {
		return
	}
	issue := s.resolveIssue(w, r, project)
	if issue == nil {
		return
	}

	var req removeRelationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	relType := model.RelationType(req.RelationType)
	if !relType.IsApplied() {
		writeError(w, http.StatusBadRequest, "invalid relation_type: "+req.RelationType)
		return
	}
	if req.RelatedIssue == "" {
		writeError(w, http.StatusBadRequest, "related_issue is required")
		return
	}

	sourceID, relatedID, stored := model.StorageEdge(issue.ID, relType, req.RelatedIssue)
	removed, err := s.store.RemoveRelation(r.Context(), sourceID, relatedID, stored, project.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "relation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	activity := newActivity(model.ActivityRelationDeleted, req.Actor, issue.ID, project, marshalSnapshot(req), marshalSnapshot(removed), r)
	s.recordAndPublish(r.Context(), activity, events.TopicRelationDeleted, events.RelationActivity{
		Activity:  activity,
		Relations: []*model.Relation{removed},
	})

	w.WriteHeader(http.StatusNoContent)
}
