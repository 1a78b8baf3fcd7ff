package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/trellis-pm/trellis/internal/model"
)

// startTestNATS runs an embedded NATS server on a random port.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{
		Host: "127.0.0.1",
		Port: -1,
	}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting nats server: %v", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server not ready")
	}
	t.Cleanup(srv.Shutdown)
	return srv.ClientURL()
}

func TestPublishSubscribe_RoundTrip(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("NewNATSPublisher: %v", err)
	}
	defer pub.Close()

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("NewNATSSubscriber: %v", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(TopicRelationWildcard)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	sent := RelationActivity{
		Activity: &model.Activity{
			Kind:        model.ActivityRelationCreated,
			IssueID:     "is-a",
			ProjectID:   "pr-1",
			WorkspaceID: "ws-1",
		},
		Relations: []*model.Relation{
			{ID: "rel-1", IssueID: "is-b", RelatedIssueID: "is-a", RelationType: model.RelBlockedBy},
		},
	}
	if err := pub.Publish(context.Background(), TopicRelationCreated, sent); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case raw := <-ch:
		var got RelationActivity
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if got.Activity == nil || got.Activity.IssueID != "is-a" {
			t.Errorf("got activity %+v, want issue is-a", got.Activity)
		}
		if len(got.Relations) != 1 || got.Relations[0].ID != "rel-1" {
			t.Errorf("got relations %+v, want [rel-1]", got.Relations)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribe_WildcardMatchesTopics(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe("trellis.>")
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	for _, topic := range []string{TopicRelationCreated, TopicRelationDeleted, TopicIssueCreated} {
		if err := pub.Publish(context.Background(), topic, map[string]string{"topic": topic}); err != nil {
			t.Fatalf("Publish(%s): %v", topic, err)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of 3", i+1)
		}
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	url := startTestNATS(t)

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe("trellis.>")
	if err != nil {
		t.Fatal(err)
	}

	cancel()
	// cancel is idempotent.
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestNoopPublisher(t *testing.T) {
	p := &NoopPublisher{}
	if err := p.Publish(context.Background(), TopicRelationCreated, "anything"); err != nil {
		t.Errorf("NoopPublisher.Publish returned error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("NoopPublisher.Close returned error: %v", err)
	}
}
