// Package client provides a transport-agnostic interface for the trellis
// service and an HTTP/JSON implementation that talks to the trellis REST API.
package client

import (
	"context"

	"github.com/trellis-pm/trellis/internal/model"
)

// TrellisClient is the interface that all trellis CLI commands use to
// communicate with the server. It is implemented by HTTPClient and can be
// backed by any transport.
type TrellisClient interface {
	// Workspaces
	CreateWorkspace(ctx context.Context, req *CreateWorkspaceRequest) (*model.Workspace, error)
	GetWorkspace(ctx context.Context, slug string) (*model.Workspace, error)

	// Projects
	CreateProject(ctx context.Context, slug string, req *CreateProjectRequest) (*model.Project, error)
	GetProject(ctx context.Context, slug, projectID string) (*model.Project, error)
	ListProjects(ctx context.Context, slug string) ([]*model.Project, error)

	// Issues
	CreateIssue(ctx context.Context, slug, projectID string, req *CreateIssueRequest) (*model.Issue, error)
	GetIssue(ctx context.Context, slug, projectID, issueID string) (*model.Issue, error)
	ListIssues(ctx context.Context, slug, projectID string, req *ListIssuesRequest) (*ListIssuesResponse, error)
	DeleteIssue(ctx context.Context, slug, projectID, issueID string) error
	AddLink(ctx context.Context, slug, projectID, issueID string, req *AddLinkRequest) (*model.IssueLink, error)

	// Relations
	ListRelations(ctx context.Context, slug, projectID, issueID string) (*model.RelationGroups, error)
	CreateRelations(ctx context.Context, slug, projectID, issueID string, req *CreateRelationsRequest) ([]*model.Relation, error)
	RemoveRelation(ctx context.Context, slug, projectID, issueID string, req *RemoveRelationRequest) error

	// Activities
	ListActivities(ctx context.Context, slug, projectID, issueID string) ([]*model.Activity, error)
	ListNotifications(ctx context.Context, slug, projectID, issueID string) ([]*model.Notification, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// CreateWorkspaceRequest holds parameters for creating a workspace.
type CreateWorkspaceRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
}

// CreateProjectRequest holds parameters for creating a project.
type CreateProjectRequest struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	CreatedBy  string `json:"created_by,omitempty"`
}

// CreateIssueRequest holds parameters for creating an issue.
type CreateIssueRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	State       string   `json:"state,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
	SortOrder   float64  `json:"sort_order,omitempty"`
	AssigneeIDs []string `json:"assignee_ids,omitempty"`
	LabelIDs    []string `json:"label_ids,omitempty"`
	CreatedBy   string   `json:"created_by,omitempty"`
}

// ListIssuesRequest holds parameters for listing issues.
type ListIssuesRequest struct {
	State    []string `json:"state,omitempty"`
	Priority []string `json:"priority,omitempty"`
	ParentID string   `json:"parent_id,omitempty"`
	Search   string   `json:"search,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

// ListIssuesResponse is the response from ListIssues.
type ListIssuesResponse struct {
	Issues []*model.Issue `json:"issues"`
	Total  int            `json:"total"`
}

// AddLinkRequest holds parameters for attaching a link to an issue.
type AddLinkRequest struct {
	Title     string `json:"title,omitempty"`
	URL       string `json:"url"`
	CreatedBy string `json:"created_by,omitempty"`
}

// CreateRelationsRequest holds parameters for relating an issue to others.
type CreateRelationsRequest struct {
	RelationType string   `json:"relation_type"`
	Issues       []string `json:"issues"`
	CreatedBy    string   `json:"created_by,omitempty"`
}

// RemoveRelationRequest holds parameters for removing a relation.
type RemoveRelationRequest struct {
	RelationType string `json:"relation_type"`
	RelatedIssue string `json:"related_issue"`
	Actor        string `json:"actor,omitempty"`
}
