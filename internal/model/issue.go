package model

import "time"

// IssueState represents the workflow state of an issue.
type IssueState string

const (
	StateBacklog   IssueState = "backlog"
	StateUnstarted IssueState = "unstarted"
	StateStarted   IssueState = "started"
	StateCompleted IssueState = "completed"
	StateCancelled IssueState = "cancelled"
)

// String returns the string representation of the state.
func (s IssueState) String() string {
	return string(s)
}

// IsValid checks whether the state is a known value.
func (s IssueState) IsValid() bool {
	switch s {
	case StateBacklog, StateUnstarted, StateStarted, StateCompleted, StateCancelled:
		return true
	}
	return false
}

// Priority represents the urgency of an issue.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// IsValid checks whether the priority is a known value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow, PriorityNone:
		return true
	}
	return false
}

// Issue is the core work-item record.
type Issue struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	State       IssueState `json:"state"`
	Priority    Priority   `json:"priority"`
	SequenceID  int        `json:"sequence_id"`
	SortOrder   float64    `json:"sort_order"`
	ProjectID   string     `json:"project_id"`
	WorkspaceID string     `json:"workspace_id"`
	ParentID    string     `json:"parent_id,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	UpdatedBy   string     `json:"updated_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// Relational data -- populated by queries, not stored in the issues table.
	AssigneeIDs []string `json:"assignee_ids,omitempty"`
	LabelIDs    []string `json:"label_ids,omitempty"`
}

// IssueLink is an external URL attached to an issue.
type IssueLink struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issue_id"`
	Title     string    `json:"title,omitempty"`
	URL       string    `json:"url"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
