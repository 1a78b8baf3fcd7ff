package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/trellis-pm/trellis/internal/events"
	"github.com/trellis-pm/trellis/internal/model"
	"github.com/trellis-pm/trellis/internal/store"
)

// TrellisServer serves the trellis HTTP/JSON API.
type TrellisServer struct {
	store     store.Store
	publisher events.Publisher
}

// NewTrellisServer returns a new TrellisServer backed by the given store and publisher.
func NewTrellisServer(s store.Store, p events.Publisher) *TrellisServer {
	return &TrellisServer{
		store:     s,
		publisher: p,
	}
}

// recordAndPublish persists an activity row and publishes the event to NATS.
// Both operations are best-effort; failures are logged but never surface to
// the caller or roll back the mutation that produced them.
func (s *TrellisServer) recordAndPublish(ctx context.Context, activity *model.Activity, topic string, event any) {
	if err := s.store.RecordActivity(ctx, activity); err != nil {
		slog.Warn("failed to record activity", "kind", activity.Kind, "issue_id", activity.IssueID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "issue_id", activity.IssueID, "error", err)
	}
}

// newActivity builds an activity envelope for a mutation against an issue in
// the given project. requested is a snapshot of the request payload; current
// is the pre-mutation state of the affected record (deletes only). Epoch is
// whole seconds since the Unix epoch.
func newActivity(kind, actorID, issueID string, project *model.Project, requested, current json.RawMessage, r *http.Request) *model.Activity {
	return &model.Activity{
		Kind:            kind,
		ActorID:         actorID,
		IssueID:         issueID,
		ProjectID:       project.ID,
		WorkspaceID:     project.WorkspaceID,
		RequestedData:   requested,
		CurrentInstance: current,
		Epoch:           time.Now().Unix(),
		Origin:          r.Header.Get("Origin"),
	}
}

// marshalSnapshot serializes v for an activity snapshot. Marshal failures are
// logged and produce a null snapshot rather than failing the mutation.
func marshalSnapshot(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to marshal activity snapshot", "error", err)
		return nil
	}
	return data
}

// slogWarnPublish logs a failed event publish. Used where an event is emitted
// without an accompanying activity row.
func slogWarnPublish(topic string, err error) {
	slog.Warn("failed to publish event", "topic", topic, "error", err)
}
