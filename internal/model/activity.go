package model

import (
	"encoding/json"
	"time"
)

// Activity kinds for relation mutations.
const (
	ActivityRelationCreated = "issue_relation.created"
	ActivityRelationDeleted = "issue_relation.deleted"
	ActivityIssueCreated    = "issue.created"
	ActivityIssueDeleted    = "issue.deleted"
)

// Activity is a persisted audit record for a mutation. RequestedData holds a
// snapshot of the request payload; CurrentInstance holds the pre-mutation
// state of the affected record (deletes only, null on creates). Epoch is
// whole seconds since the Unix epoch.
type Activity struct {
	ID              int64           `json:"id"`
	Kind            string          `json:"kind"`
	ActorID         string          `json:"actor_id,omitempty"`
	IssueID         string          `json:"issue_id"`
	ProjectID       string          `json:"project_id"`
	WorkspaceID     string          `json:"workspace_id"`
	RequestedData   json.RawMessage `json:"requested_data,omitempty"`
	CurrentInstance json.RawMessage `json:"current_instance,omitempty"`
	Epoch           int64           `json:"epoch"`
	Origin          string          `json:"origin,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Notification is a per-recipient record derived from activity events by the
// notify worker.
type Notification struct {
	ID          int64           `json:"id"`
	RecipientID string          `json:"recipient_id"`
	Kind        string          `json:"kind"`
	IssueID     string          `json:"issue_id"`
	ProjectID   string          `json:"project_id"`
	WorkspaceID string          `json:"workspace_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ReadAt      *time.Time      `json:"read_at,omitempty"`
}
