package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/trellis-pm/trellis/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanProject scans a single row into a model.Project.
func scanProject(row scannable) (*model.Project, error) {
	var p model.Project
	var createdBy sql.NullString
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Identifier,
		&p.WorkspaceID,
		&createdBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedBy = createdBy.String
	return &p, nil
}

// scanProjects scans multiple rows into a slice of model.Project pointers.
func scanProjects(rows *sql.Rows) ([]*model.Project, error) {
	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

// scanIssue scans a single row into a model.Issue.
// The row must contain columns in the order defined by issueColumns.
func scanIssue(row scannable) (*model.Issue, error) {
	var i model.Issue
	var (
		description sql.NullString
		parentID    sql.NullString
		createdBy   sql.NullString
		updatedBy   sql.NullString
		deletedAt   sql.NullTime
	)

	err := row.Scan(
		&i.ID,
		&i.Name,
		&description,
		&i.State,
		&i.Priority,
		&i.SequenceID,
		&i.SortOrder,
		&i.ProjectID,
		&i.WorkspaceID,
		&parentID,
		&createdBy,
		&updatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	i.Description = description.String
	i.ParentID = parentID.String
	i.CreatedBy = createdBy.String
	i.UpdatedBy = updatedBy.String
	if deletedAt.Valid {
		t := deletedAt.Time
		i.DeletedAt = &t
	}

	return &i, nil
}

// scanIssueWithTotal scans a row that has a leading total_count column
// followed by the standard issue columns. Used by queryListIssues with
// COUNT(*) OVER().
func scanIssueWithTotal(row scannable) (*model.Issue, int, error) {
	var total int
	var i model.Issue
	var (
		description sql.NullString
		parentID    sql.NullString
		createdBy   sql.NullString
		updatedBy   sql.NullString
		deletedAt   sql.NullTime
	)

	err := row.Scan(
		&total,
		&i.ID,
		&i.Name,
		&description,
		&i.State,
		&i.Priority,
		&i.SequenceID,
		&i.SortOrder,
		&i.ProjectID,
		&i.WorkspaceID,
		&parentID,
		&createdBy,
		&updatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, 0, err
	}

	i.Description = description.String
	i.ParentID = parentID.String
	i.CreatedBy = createdBy.String
	i.UpdatedBy = updatedBy.String
	if deletedAt.Valid {
		t := deletedAt.Time
		i.DeletedAt = &t
	}

	return &i, total, nil
}

// scanRelation scans a single row into a model.Relation.
// The row must contain columns in the order defined by relationColumns.
func scanRelation(row scannable) (*model.Relation, error) {
	var r model.Relation
	var (
		createdBy sql.NullString
		updatedBy sql.NullString
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&r.ID,
		&r.IssueID,
		&r.RelatedIssueID,
		&r.RelationType,
		&r.ProjectID,
		&r.WorkspaceID,
		&createdBy,
		&updatedBy,
		&r.CreatedAt,
		&r.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedBy = createdBy.String
	r.UpdatedBy = updatedBy.String
	if deletedAt.Valid {
		t := deletedAt.Time
		r.DeletedAt = &t
	}
	return &r, nil
}

// scanRelations scans multiple rows into a slice of model.Relation pointers.
func scanRelations(rows *sql.Rows) ([]*model.Relation, error) {
	var relations []*model.Relation
	for rows.Next() {
		r, err := scanRelation(rows)
		if err != nil {
			return nil, err
		}
		relations = append(relations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return relations, nil
}

// scanRelationEdge scans one row of the relation listing query: edge columns
// followed by the far issue's summary columns.
func scanRelationEdge(row scannable) (*model.RelationEdge, error) {
	var e model.RelationEdge
	var s model.IssueSummary
	var (
		createdBy   sql.NullString
		labelIDs    pq.StringArray
		assigneeIDs pq.StringArray
	)

	err := row.Scan(
		&e.IssueID,
		&e.RelatedIssueID,
		&e.RelationType,
		&e.CreatedAt,
		&s.ID,
		&s.Name,
		&s.State,
		&s.Priority,
		&s.SequenceID,
		&s.SortOrder,
		&s.ProjectID,
		&createdBy,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.SubIssueCount,
		&s.AttachmentCount,
		&s.LinkCount,
		&labelIDs,
		&assigneeIDs,
	)
	if err != nil {
		return nil, err
	}

	s.CreatedBy = createdBy.String
	s.LabelIDs = labelIDs
	s.AssigneeIDs = assigneeIDs
	if s.LabelIDs == nil {
		s.LabelIDs = []string{}
	}
	if s.AssigneeIDs == nil {
		s.AssigneeIDs = []string{}
	}
	e.Issue = &s
	return &e, nil
}

// scanRelationEdges scans multiple rows into a slice of model.RelationEdge pointers.
func scanRelationEdges(rows *sql.Rows) ([]*model.RelationEdge, error) {
	var edges []*model.RelationEdge
	for rows.Next() {
		e, err := scanRelationEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

// scanActivity scans a single row into a model.Activity.
func scanActivity(row scannable) (*model.Activity, error) {
	var a model.Activity
	var (
		actorID   sql.NullString
		requested []byte
		current   []byte
		origin    sql.NullString
	)
	err := row.Scan(
		&a.ID,
		&a.Kind,
		&actorID,
		&a.IssueID,
		&a.ProjectID,
		&a.WorkspaceID,
		&requested,
		&current,
		&a.Epoch,
		&origin,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ActorID = actorID.String
	a.Origin = origin.String
	if len(requested) > 0 {
		a.RequestedData = json.RawMessage(requested)
	}
	if len(current) > 0 {
		a.CurrentInstance = json.RawMessage(current)
	}
	return &a, nil
}

// scanActivities scans multiple rows into a slice of model.Activity pointers.
func scanActivities(rows *sql.Rows) ([]*model.Activity, error) {
	var activities []*model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}

// scanNotification scans a single row into a model.Notification.
func scanNotification(row scannable) (*model.Notification, error) {
	var n model.Notification
	var (
		payload []byte
		readAt  sql.NullTime
	)
	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.Kind,
		&n.IssueID,
		&n.ProjectID,
		&n.WorkspaceID,
		&payload,
		&n.CreatedAt,
		&readAt,
	)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		n.Payload = json.RawMessage(payload)
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return &n, nil
}

// scanNotifications scans multiple rows into a slice of model.Notification pointers.
func scanNotifications(rows *sql.Rows) ([]*model.Notification, error) {
	var notifications []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// scanStrings scans single-column rows into a string slice.
func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
