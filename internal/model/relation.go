package model

import "time"

// RelationType categorizes the stored relationship between two issues.
// Only the three stored types exist at the database level; "blocking" is a
// derived view of blocked_by and is never persisted.
type RelationType string

const (
	RelBlockedBy RelationType = "blocked_by"
	RelDuplicate RelationType = "duplicate"
	RelRelatesTo RelationType = "relates_to"

	// RelBlocking is the applied (request-level) inverse of RelBlockedBy.
	RelBlocking RelationType = "blocking"
)

// IsStored reports whether the relation type is one of the three persisted values.
func (r RelationType) IsStored() bool {
	switch r {
	case RelBlockedBy, RelDuplicate, RelRelatesTo:
		return true
	}
	return false
}

// IsApplied reports whether the relation type is valid in a request,
// i.e. a stored type or the derived "blocking" view.
func (r RelationType) IsApplied() bool {
	return r == RelBlocking || r.IsStored()
}

// String returns the string representation of the relation type.
func (r RelationType) String() string {
	return string(r)
}

// StorageEdge normalizes an applied relation into its stored direction.
// "blocking" inverts the edge (the target blocks issueID, so the target is
// the source of the stored blocked_by row); every other type is stored
// verbatim. The same function is applied on both the create and delete
// paths so the inversion can never diverge.
func StorageEdge(issueID string, relType RelationType, targetID string) (sourceID, relatedID string, stored RelationType) {
	if relType == RelBlocking {
		return targetID, issueID, RelBlockedBy
	}
	return issueID, targetID, relType
}

// Relation is a directed, typed edge between two issues.
type Relation struct {
	ID             string       `json:"id"`
	IssueID        string       `json:"issue_id"`
	RelatedIssueID string       `json:"related_issue_id"`
	RelationType   RelationType `json:"relation_type"`
	ProjectID      string       `json:"project_id"`
	WorkspaceID    string       `json:"workspace_id"`
	CreatedBy      string       `json:"created_by,omitempty"`
	UpdatedBy      string       `json:"updated_by,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	DeletedAt      *time.Time   `json:"deleted_at,omitempty"`
}

// IssueSummary is the projection of an issue returned by relation listings.
// RelationType is set relative to the queried issue, not to the stored edge.
type IssueSummary struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	State           IssueState   `json:"state"`
	Priority        Priority     `json:"priority"`
	SequenceID      int          `json:"sequence_id"`
	SortOrder       float64      `json:"sort_order"`
	ProjectID       string       `json:"project_id"`
	LabelIDs        []string     `json:"label_ids"`
	AssigneeIDs     []string     `json:"assignee_ids"`
	SubIssueCount   int          `json:"sub_issues_count"`
	AttachmentCount int          `json:"attachment_count"`
	LinkCount       int          `json:"link_count"`
	CreatedBy       string       `json:"created_by,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	RelationType    RelationType `json:"relation_type"`
}

// RelationEdge pairs a stored edge with the summary of the issue on the far
// side of it, as seen from the queried issue.
type RelationEdge struct {
	IssueID        string
	RelatedIssueID string
	RelationType   RelationType
	CreatedAt      time.Time
	Issue          *IssueSummary
}

// RelationGroups is the categorized result of listing one issue's relations.
type RelationGroups struct {
	Blocking  []*IssueSummary `json:"blocking"`
	BlockedBy []*IssueSummary `json:"blocked_by"`
	Duplicate []*IssueSummary `json:"duplicate"`
	RelatesTo []*IssueSummary `json:"relates_to"`
}

// GroupRelations categorizes edges touching issueID into the four relation
// groups. Edges must be ordered most-recently-created first; that order is
// preserved within each group. For blocked_by edges the direction decides the
// group: issueID as source means it is blocked by the far issue, issueID as
// target means it blocks the far issue. duplicate and relates_to are
// symmetric and deduplicated by far-issue id, first (newest) edge winning.
func GroupRelations(issueID string, edges []*RelationEdge) *RelationGroups {
	g := &RelationGroups{
		Blocking:  []*IssueSummary{},
		BlockedBy: []*IssueSummary{},
		Duplicate: []*IssueSummary{},
		RelatesTo: []*IssueSummary{},
	}
	seenDup := make(map[string]bool)
	seenRel := make(map[string]bool)

	for _, e := range edges {
		if e.Issue == nil {
			continue
		}
		s := e.Issue
		switch e.RelationType {
		case RelBlockedBy:
			if e.IssueID == issueID {
				s.RelationType = RelBlockedBy
				g.BlockedBy = append(g.BlockedBy, s)
			} else {
				s.RelationType = RelBlocking
				g.Blocking = append(g.Blocking, s)
			}
		case RelDuplicate:
			if seenDup[s.ID] {
				continue
			}
			seenDup[s.ID] = true
			s.RelationType = RelDuplicate
			g.Duplicate = append(g.Duplicate, s)
		case RelRelatesTo:
			if seenRel[s.ID] {
				continue
			}
			seenRel[s.ID] = true
			s.RelationType = RelRelatesTo
			g.RelatesTo = append(g.RelatesTo, s)
		}
	}
	return g
}
