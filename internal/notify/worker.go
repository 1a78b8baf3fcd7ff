// Package notify turns relation activity events into per-recipient
// notification rows. It runs as a background worker subscribed to the event
// bus, decoupled from the request path that produced the activity.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/trellis-pm/trellis/internal/events"
	"github.com/trellis-pm/trellis/internal/model"
	"github.com/trellis-pm/trellis/internal/store"
)

// Worker consumes relation events and records notifications.
type Worker struct {
	store  store.Store
	logger *slog.Logger
}

// NewWorker creates a notification worker backed by the given store.
func NewWorker(s store.Store, logger *slog.Logger) *Worker {
	return &Worker{store: s, logger: logger}
}

// HandleRelationActivity fans a relation activity out to notification rows.
// Recipients are the creators and assignees of every issue touched by the
// mutation, minus the actor who performed it. Failures on individual rows are
// logged and skipped so one bad recipient never drops the rest.
func (w *Worker) HandleRelationActivity(ctx context.Context, ev events.RelationActivity) {
	if ev.Activity == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		w.logger.Warn("notify: failed to marshal payload", "err", err)
		return
	}

	seen := make(map[string]bool)
	for _, issueID := range affectedIssues(ev) {
		issue, err := w.store.GetIssue(ctx, issueID)
		if err != nil {
			w.logger.Warn("notify: failed to load issue", "issue_id", issueID, "err", err)
			continue
		}

		for _, recipient := range recipients(issue) {
			if recipient == "" || recipient == ev.Activity.ActorID || seen[recipient] {
				continue
			}
			seen[recipient] = true

			n := &model.Notification{
				RecipientID: recipient,
				Kind:        ev.Activity.Kind,
				IssueID:     ev.Activity.IssueID,
				ProjectID:   ev.Activity.ProjectID,
				WorkspaceID: ev.Activity.WorkspaceID,
				Payload:     payload,
			}
			if err := w.store.RecordNotification(ctx, n); err != nil {
				w.logger.Warn("notify: failed to record notification",
					"recipient", recipient, "issue_id", ev.Activity.IssueID, "err", err)
			}
		}
	}
}

// affectedIssues collects the distinct issue ids on both sides of every edge
// in the event, including the issue the request targeted.
func affectedIssues(ev events.RelationActivity) []string {
	seen := map[string]bool{ev.Activity.IssueID: true}
	ids := []string{ev.Activity.IssueID}
	for _, rel := range ev.Relations {
		for _, id := range []string{rel.IssueID, rel.RelatedIssueID} {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func recipients(issue *model.Issue) []string {
	out := make([]string, 0, len(issue.AssigneeIDs)+1)
	out = append(out, issue.CreatedBy)
	out = append(out, issue.AssigneeIDs...)
	return out
}

// Run listens for relation events on the bus and records notifications until
// ctx is cancelled.
func (w *Worker) Run(ctx context.Context, sub events.Subscriber) error {
	ch, cancel, err := sub.Subscribe(events.TopicRelationWildcard)
	if err != nil {
		return fmt.Errorf("notify: subscribe: %w", err)
	}
	defer cancel()

	w.logger.Info("notify: worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notify: worker stopping")
			return nil
		case raw, ok := <-ch:
			if !ok {
				w.logger.Info("notify: subscription channel closed")
				return nil
			}

			var ev events.RelationActivity
			if err := json.Unmarshal(raw, &ev); err != nil {
				w.logger.Warn("notify: bad event payload", "err", err)
				continue
			}
			w.HandleRelationActivity(ctx, ev)
		}
	}
}
