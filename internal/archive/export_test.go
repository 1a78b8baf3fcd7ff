package archive

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/trellis-pm/trellis/internal/model"
	"github.com/trellis-pm/trellis/internal/store"
)

// mockStore serves a fixed workspace graph for export tests.
type mockStore struct {
	workspaces []*model.Workspace
	projects   map[string][]*model.Project // by workspace id
	issues     map[string][]*model.Issue   // by project id
	relations  []*model.Relation
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) ListWorkspaces(context.Context) ([]*model.Workspace, error) {
	return m.workspaces, nil
}

func (m *mockStore) ListProjects(_ context.Context, workspaceID string) ([]*model.Project, error) {
	return m.projects[workspaceID], nil
}

func (m *mockStore) ListIssues(_ context.Context, filter model.IssueFilter) ([]*model.Issue, int, error) {
	issues := m.issues[filter.ProjectID]
	return issues, len(issues), nil
}

func (m *mockStore) GetIssue(_ context.Context, id string) (*model.Issue, error) {
	for _, issues := range m.issues {
		for _, i := range issues {
			if i.ID == id {
				return i, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) ListRelations(context.Context, string) ([]*model.Relation, error) {
	return m.relations, nil
}

func (m *mockStore) CreateWorkspace(context.Context, *model.Workspace) error { return nil }
func (m *mockStore) GetWorkspaceBySlug(context.Context, string) (*model.Workspace, error) {
	return nil, sql.ErrNoRows
}
func (m *mockStore) CreateProject(context.Context, *model.Project) error { return nil }
func (m *mockStore) GetProject(context.Context, string) (*model.Project, error) {
	return nil, sql.ErrNoRows
}
func (m *mockStore) CreateIssue(context.Context, *model.Issue) error   { return nil }
func (m *mockStore) DeleteIssue(context.Context, string) error         { return nil }
func (m *mockStore) AddAssignee(context.Context, string, string) error { return nil }
func (m *mockStore) AddLabel(context.Context, string, string) error    { return nil }
func (m *mockStore) AddLink(context.Context, *model.IssueLink) error   { return nil }
func (m *mockStore) ListIssueRelations(context.Context, string) (*model.RelationGroups, error) {
	return nil, nil
}
func (m *mockStore) CreateRelations(_ context.Context, rs []*model.Relation) ([]*model.Relation, error) {
	return rs, nil
}
func (m *mockStore) RemoveRelation(context.Context, string, string, model.RelationType, string) (*model.Relation, error) {
	return nil, sql.ErrNoRows
}
func (m *mockStore) RecordActivity(context.Context, *model.Activity) error { return nil }
func (m *mockStore) ListActivities(context.Context, string) ([]*model.Activity, error) {
	return nil, nil
}
func (m *mockStore) RecordNotification(context.Context, *model.Notification) error { return nil }
func (m *mockStore) ListNotifications(context.Context, string) ([]*model.Notification, error) {
	return nil, nil
}
func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}
func (m *mockStore) Close() error { return nil }

func testGraph() *mockStore {
	return &mockStore{
		workspaces: []*model.Workspace{
			{ID: "ws-1", Slug: "acme", Name: "Acme"},
		},
		projects: map[string][]*model.Project{
			"ws-1": {{ID: "pr-1", Name: "Platform", Identifier: "PLAT", WorkspaceID: "ws-1"}},
		},
		issues: map[string][]*model.Issue{
			"pr-1": {
				{ID: "is-a", Name: "Fix login", ProjectID: "pr-1", WorkspaceID: "ws-1",
					AssigneeIDs: []string{"mem-1"}, LabelIDs: []string{"lbl-1"}},
				{ID: "is-b", Name: "Ship release", ProjectID: "pr-1", WorkspaceID: "ws-1"},
			},
		},
		relations: []*model.Relation{
			{ID: "rel-1", IssueID: "is-b", RelatedIssueID: "is-a",
				RelationType: model.RelBlockedBy, ProjectID: "pr-1", WorkspaceID: "ws-1"},
		},
	}
}

func TestExportJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), testGraph(), &buf); err != nil {
		t.Fatalf("ExportJSONL returned error: %v", err)
	}

	scanner := bufio.NewScanner(&buf)

	// First line is the header with counts.
	if !scanner.Scan() {
		t.Fatal("export is empty")
	}
	var h header
	if err := json.Unmarshal(scanner.Bytes(), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" {
		t.Errorf("header = %+v, want version 1 type header", h)
	}
	if h.WorkspaceCount != 1 || h.ProjectCount != 1 || h.IssueCount != 2 || h.RelationCount != 1 {
		t.Errorf("header counts = %+v, want 1/1/2/1", h)
	}

	// Remaining lines are typed records in workspace, project, issue, relation order.
	var types []string
	for scanner.Scan() {
		var rec struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal record: %v", err)
		}
		types = append(types, rec.Type)
	}
	want := []string{"workspace", "project", "issue", "issue", "relation"}
	if len(types) != len(want) {
		t.Fatalf("record types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("record %d type = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestExportJSONL_IssuesCarryAssignments(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), testGraph(), &buf); err != nil {
		t.Fatal(err)
	}

	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var rec struct {
			Type string      `json:"type"`
			Data model.Issue `json:"data"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.Type == "issue" && rec.Data.ID == "is-a" {
			if len(rec.Data.AssigneeIDs) != 1 || rec.Data.AssigneeIDs[0] != "mem-1" {
				t.Errorf("is-a assignees = %v, want [mem-1]", rec.Data.AssigneeIDs)
			}
			if len(rec.Data.LabelIDs) != 1 || rec.Data.LabelIDs[0] != "lbl-1" {
				t.Errorf("is-a labels = %v, want [lbl-1]", rec.Data.LabelIDs)
			}
			return
		}
	}
	t.Error("issue is-a not found in export")
}

func TestExportJSONL_EmptyStore(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), &mockStore{}, &buf); err != nil {
		t.Fatalf("ExportJSONL returned error: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	if !scanner.Scan() {
		t.Fatal("export missing header")
	}
	var h header
	if err := json.Unmarshal(scanner.Bytes(), &h); err != nil {
		t.Fatal(err)
	}
	if h.WorkspaceCount != 0 || h.IssueCount != 0 {
		t.Errorf("header counts = %+v, want zeros", h)
	}
	if scanner.Scan() {
		t.Errorf("empty store should export only the header, got: %s", scanner.Text())
	}
}

// captureDestination delivers written payloads on a channel.
type captureDestination struct {
	writes chan []byte
}

func (d *captureDestination) Write(_ context.Context, data []byte) error {
	select {
	case d.writes <- data:
	default:
	}
	return nil
}

func TestScheduler_RunsInitialExport(t *testing.T) {
	dest := &captureDestination{writes: make(chan []byte, 1)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewScheduler(testGraph(), []Destination{dest}, time.Hour, logger)
	s.Start()
	defer s.Stop()

	// The initial export runs immediately on Start.
	select {
	case data := <-dest.writes:
		if !bytes.Contains(data, []byte(`"type":"header"`)) {
			t.Error("exported payload missing header record")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not run the initial export")
	}
}
