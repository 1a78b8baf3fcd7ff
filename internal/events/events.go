package events

import (
	"context"

	"github.com/trellis-pm/trellis/internal/model"
)

// Event topic constants
const (
	TopicRelationCreated = "trellis.relation.created"
	TopicRelationDeleted = "trellis.relation.deleted"
	TopicIssueCreated    = "trellis.issue.created"
	TopicIssueDeleted    = "trellis.issue.deleted"
	TopicProjectCreated  = "trellis.project.created"

	// TopicRelationWildcard matches every relation topic above; subscribers
	// that consume relation mutations subscribe to this, not to literals.
	TopicRelationWildcard = "trellis.relation.>"
)

// Event types

// RelationActivity is published for every relation mutation. It carries the
// full activity envelope so consumers (notification worker, webhooks) need no
// follow-up queries.
type RelationActivity struct {
	Activity  *model.Activity   `json:"activity"`
	Relations []*model.Relation `json:"relations,omitempty"`
}

type IssueCreated struct {
	Issue *model.Issue `json:"issue"`
}

type IssueDeleted struct {
	IssueID   string `json:"issue_id"`
	ProjectID string `json:"project_id"`
}

type ProjectCreated struct {
	Project *model.Project `json:"project"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the event bus. Consumers (the notify
// worker, tl watch) get raw payloads and decode the types above themselves.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
