package store

import (
	"context"

	"github.com/trellis-pm/trellis/internal/model"
)

// Store defines the persistence interface for trellis.
type Store interface {
	// Workspaces
	CreateWorkspace(ctx context.Context, ws *model.Workspace) error
	GetWorkspaceBySlug(ctx context.Context, slug string) (*model.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]*model.Workspace, error)

	// Projects
	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context, workspaceID string) ([]*model.Project, error)

	// Issues
	CreateIssue(ctx context.Context, issue *model.Issue) error
	GetIssue(ctx context.Context, id string) (*model.Issue, error)
	ListIssues(ctx context.Context, filter model.IssueFilter) ([]*model.Issue, int, error) // returns issues, total count, error
	DeleteIssue(ctx context.Context, id string) error                                      // soft delete
	AddAssignee(ctx context.Context, issueID, memberID string) error
	AddLabel(ctx context.Context, issueID, labelID string) error
	AddLink(ctx context.Context, link *model.IssueLink) error

	// Relations
	ListIssueRelations(ctx context.Context, issueID string) (*model.RelationGroups, error)
	ListRelations(ctx context.Context, workspaceID string) ([]*model.Relation, error) // empty workspaceID means all
	CreateRelations(ctx context.Context, relations []*model.Relation) ([]*model.Relation, error)
	RemoveRelation(ctx context.Context, sourceID, relatedID string, relType model.RelationType, projectID string) (*model.Relation, error)

	// Activities
	RecordActivity(ctx context.Context, activity *model.Activity) error
	ListActivities(ctx context.Context, issueID string) ([]*model.Activity, error)

	// Notifications
	RecordNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, issueID string) ([]*model.Notification, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
