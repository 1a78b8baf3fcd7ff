package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/trellis-pm/trellis/internal/model"
	"github.com/trellis-pm/trellis/internal/store"
)

// newMockDB returns a PostgresStore backed by sqlmock. Unmet expectations
// fail the test at cleanup.
func newMockDB(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		db.Close()
	})
	return &PostgresStore{db: db}, mock
}

var relationCols = []string{
	"id", "issue_id", "related_issue_id", "relation_type", "project_id", "workspace_id",
	"created_by", "updated_by", "created_at", "updated_at", "deleted_at",
}

var relationEdgeCols = []string{
	"issue_id", "related_issue_id", "relation_type", "created_at",
	"id", "name", "state", "priority", "sequence_id", "sort_order", "project_id",
	"created_by", "i_created_at", "i_updated_at",
	"sub_issues_count", "attachment_count", "link_count", "label_ids", "assignee_ids",
}

func TestCreateRelations_InsertsBatch(t *testing.T) {
	s, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO issue_relations").
		WithArgs("rel-1", "is-a", "is-b", "blocked_by", "pr-1", "ws-1", "alice", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("rel-1", now, now))
	mock.ExpectQuery("INSERT INTO issue_relations").
		WithArgs("rel-2", "is-a", "is-c", "blocked_by", "pr-1", "ws-1", "alice", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("rel-2", now, now))
	mock.ExpectCommit()

	created, err := s.CreateRelations(context.Background(), []*model.Relation{
		{ID: "rel-1", IssueID: "is-a", RelatedIssueID: "is-b", RelationType: model.RelBlockedBy,
			ProjectID: "pr-1", WorkspaceID: "ws-1", CreatedBy: "alice", UpdatedBy: "alice"},
		{ID: "rel-2", IssueID: "is-a", RelatedIssueID: "is-c", RelationType: model.RelBlockedBy,
			ProjectID: "pr-1", WorkspaceID: "ws-1", CreatedBy: "alice", UpdatedBy: "alice"},
	})
	if err != nil {
		t.Fatalf("CreateRelations returned error: %v", err)
	}
	if len(created) != 2 {
		t.Errorf("created %d relations, want 2", len(created))
	}
	if created[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not populated from RETURNING")
	}
}

func TestCreateRelations_SkipsExisting(t *testing.T) {
	s, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectBegin()
	// Conflict: ON CONFLICT DO NOTHING returns no row.
	mock.ExpectQuery("INSERT INTO issue_relations").
		WithArgs("rel-1", "is-a", "is-b", "blocked_by", "pr-1", "ws-1", "alice", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))
	mock.ExpectQuery("INSERT INTO issue_relations").
		WithArgs("rel-2", "is-a", "is-c", "blocked_by", "pr-1", "ws-1", "alice", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("rel-2", now, now))
	mock.ExpectCommit()

	created, err := s.CreateRelations(context.Background(), []*model.Relation{
		{ID: "rel-1", IssueID: "is-a", RelatedIssueID: "is-b", RelationType: model.RelBlockedBy,
			ProjectID: "pr-1", WorkspaceID: "ws-1", CreatedBy: "alice", UpdatedBy: "alice"},
		{ID: "rel-2", IssueID: "is-a", RelatedIssueID: "is-c", RelationType: model.RelBlockedBy,
			ProjectID: "pr-1", WorkspaceID: "ws-1", CreatedBy: "alice", UpdatedBy: "alice"},
	})
	if err != nil {
		t.Fatalf("CreateRelations returned error: %v", err)
	}
	if len(created) != 1 || created[0].ID != "rel-2" {
		t.Errorf("created = %+v, want only rel-2", created)
	}
}

func TestCreateRelations_RollsBackOnError(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO issue_relations").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.CreateRelations(context.Background(), []*model.Relation{
		{ID: "rel-1", IssueID: "is-a", RelatedIssueID: "is-b", RelationType: model.RelBlockedBy,
			ProjectID: "pr-1", WorkspaceID: "ws-1"},
	})
	if err == nil {
		t.Fatal("CreateRelations should return the insert error")
	}
}

func TestRemoveRelation(t *testing.T) {
	s, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM issue_relations").
		WithArgs("is-a", "is-b", "blocked_by", "pr-1").
		WillReturnRows(sqlmock.NewRows(relationCols).
			AddRow("rel-1", "is-a", "is-b", "blocked_by", "pr-1", "ws-1",
				"alice", "alice", now, now, nil))
	mock.ExpectExec("DELETE FROM issue_relations").
		WithArgs("rel-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := s.RemoveRelation(context.Background(), "is-a", "is-b", model.RelBlockedBy, "pr-1")
	if err != nil {
		t.Fatalf("RemoveRelation returned error: %v", err)
	}
	if removed.ID != "rel-1" {
		t.Errorf("removed.ID = %q, want rel-1", removed.ID)
	}
	if removed.RelationType != model.RelBlockedBy {
		t.Errorf("removed.RelationType = %q, want blocked_by", removed.RelationType)
	}
}

func TestRemoveRelation_NotFound(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM issue_relations").
		WithArgs("is-a", "is-b", "blocked_by", "pr-1").
		WillReturnRows(sqlmock.NewRows(relationCols))
	mock.ExpectRollback()

	_, err := s.RemoveRelation(context.Background(), "is-a", "is-b", model.RelBlockedBy, "pr-1")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("RemoveRelation error = %v, want sql.ErrNoRows", err)
	}
}

func TestQueryDeleteRelation_NoRows(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM issue_relations").
		WithArgs("rel-gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := queryDeleteRelation(context.Background(), s.db, "rel-gone")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("queryDeleteRelation error = %v, want sql.ErrNoRows", err)
	}
}

func TestListIssueRelations_GroupsEdges(t *testing.T) {
	s, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery("FROM issue_relations r").
		WithArgs("is-me").
		WillReturnRows(sqlmock.NewRows(relationEdgeCols).
			// is-me blocked by is-b
			AddRow("is-me", "is-b", "blocked_by", now,
				"is-b", "Fix login", "started", "high", 3, 65535.0, "pr-1",
				"alice", now, now, 0, 1, 2, "{lbl-1}", "{mem-1,mem-2}").
			// is-c blocked by is-me, so is-me is blocking is-c
			AddRow("is-c", "is-me", "blocked_by", now.Add(-time.Minute),
				"is-c", "Ship release", "backlog", "none", 4, 65535.0, "pr-1",
				nil, now, now, 2, 0, 0, "{}", "{}"))

	groups, err := s.ListIssueRelations(context.Background(), "is-me")
	if err != nil {
		t.Fatalf("ListIssueRelations returned error: %v", err)
	}

	if len(groups.BlockedBy) != 1 || groups.BlockedBy[0].ID != "is-b" {
		t.Errorf("BlockedBy = %+v, want [is-b]", groups.BlockedBy)
	}
	if len(groups.Blocking) != 1 || groups.Blocking[0].ID != "is-c" {
		t.Errorf("Blocking = %+v, want [is-c]", groups.Blocking)
	}
	if len(groups.Duplicate) != 0 || len(groups.RelatesTo) != 0 {
		t.Errorf("Duplicate/RelatesTo should be empty, got %+v / %+v", groups.Duplicate, groups.RelatesTo)
	}

	b := groups.BlockedBy[0]
	if len(b.AssigneeIDs) != 2 || b.AssigneeIDs[0] != "mem-1" {
		t.Errorf("AssigneeIDs = %v, want [mem-1 mem-2]", b.AssigneeIDs)
	}
	if len(b.LabelIDs) != 1 || b.LabelIDs[0] != "lbl-1" {
		t.Errorf("LabelIDs = %v, want [lbl-1]", b.LabelIDs)
	}
	if b.AttachmentCount != 1 || b.LinkCount != 2 {
		t.Errorf("counts = (%d, %d), want (1, 2)", b.AttachmentCount, b.LinkCount)
	}

	c := groups.Blocking[0]
	if c.AssigneeIDs == nil || c.LabelIDs == nil {
		t.Error("empty arrays should scan to empty slices, not nil")
	}
}

func TestListIssues_CountOver(t *testing.T) {
	s, mock := newMockDB(t)
	now := time.Now()

	issueCols := []string{
		"total_count", "id", "name", "description", "state", "priority", "sequence_id", "sort_order",
		"project_id", "workspace_id", "parent_id", "created_by", "updated_by",
		"created_at", "updated_at", "deleted_at",
	}
	mock.ExpectQuery("FROM issues").
		WithArgs("pr-1", "started", 10).
		WillReturnRows(sqlmock.NewRows(issueCols).
			AddRow(42, "is-1", "Fix login", nil, "started", "high", 3, 65535.0,
				"pr-1", "ws-1", nil, "alice", nil, now, now, nil))

	issues, total, err := s.ListIssues(context.Background(), model.IssueFilter{
		ProjectID: "pr-1",
		State:     []model.IssueState{model.StateStarted},
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("ListIssues returned error: %v", err)
	}
	if total != 42 {
		t.Errorf("total = %d, want 42", total)
	}
	if len(issues) != 1 || issues[0].ID != "is-1" {
		t.Errorf("issues = %+v, want [is-1]", issues)
	}
	if issues[0].Description != "" || issues[0].ParentID != "" {
		t.Error("null columns should scan to empty strings")
	}
}

func TestListRelations_WorkspaceFilter(t *testing.T) {
	s, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery("FROM issue_relations").
		WithArgs("ws-1").
		WillReturnRows(sqlmock.NewRows(relationCols).
			AddRow("rel-1", "is-a", "is-b", "relates_to", "pr-1", "ws-1",
				nil, nil, now, now, nil))

	relations, err := s.ListRelations(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("ListRelations returned error: %v", err)
	}
	if len(relations) != 1 || relations[0].ID != "rel-1" {
		t.Errorf("relations = %+v, want [rel-1]", relations)
	}
	if relations[0].CreatedBy != "" {
		t.Errorf("CreatedBy = %q, want empty for null column", relations[0].CreatedBy)
	}
}

func TestParseSortClause(t *testing.T) {
	for _, tc := range []struct {
		sort string
		want string
	}{
		{"", "created_at DESC"},
		{"name", "name ASC"},
		{"-name", "name DESC"},
		{"updated_at", "updated_at ASC"},
		{"-sequence_id", "sequence_id DESC"},
		{"bogus", "created_at DESC"},
		{"-id; DROP TABLE issues", "created_at DESC"},
	} {
		if got := parseSortClause(tc.sort); got != tc.want {
			t.Errorf("parseSortClause(%q) = %q, want %q", tc.sort, got, tc.want)
		}
	}
}

func TestScanHelpers(t *testing.T) {
	if v := nullString(""); v.Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if v := nullString("x"); !v.Valid || v.String != "x" {
		t.Errorf("nullString(\"x\") = %+v", v)
	}

	if v := nullTimePtr(nil); v.Valid {
		t.Error("nullTimePtr(nil) should be invalid")
	}
	now := time.Now()
	if v := nullTimePtr(&now); !v.Valid || !v.Time.Equal(now) {
		t.Errorf("nullTimePtr(&now) = %+v", v)
	}

	if b := jsonbBytes(nil); b != nil {
		t.Errorf("jsonbBytes(nil) = %v, want nil", b)
	}
	if b := jsonbBytes(json.RawMessage(`{"a":1}`)); string(b) != `{"a":1}` {
		t.Errorf("jsonbBytes = %q", b)
	}
}

func TestTxStore_ReusesTransaction(t *testing.T) {
	s, mock := newMockDB(t)
	now := time.Now()

	// One begin/commit even with a nested RunInTransaction.
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO issue_relations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("rel-1", now, now))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.RunInTransaction(context.Background(), func(inner store.Store) error {
			_, err := inner.CreateRelations(context.Background(), []*model.Relation{
				{ID: "rel-1", IssueID: "is-a", RelatedIssueID: "is-b",
					RelationType: model.RelBlockedBy, ProjectID: "pr-1", WorkspaceID: "ws-1"},
			})
			return err
		})
	})
	if err != nil {
		t.Fatalf("RunInTransaction returned error: %v", err)
	}
}
