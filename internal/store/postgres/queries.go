package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/trellis-pm/trellis/internal/model"
)

// issueColumns is the column list used for SELECT statements on the issues table.
const issueColumns = `id, name, description, state, priority, sequence_id, sort_order,
	project_id, workspace_id, parent_id, created_by, updated_by, created_at, updated_at, deleted_at`

// relationColumns is the column list used for SELECT statements on the issue_relations table.
const relationColumns = `id, issue_id, related_issue_id, relation_type, project_id, workspace_id,
	created_by, updated_by, created_at, updated_at, deleted_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateWorkspace(ctx context.Context, db executor, ws *model.Workspace) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO workspaces (id, slug, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		ws.ID, ws.Slug, ws.Name,
	).Scan(&ws.CreatedAt, &ws.UpdatedAt)
}

func queryGetWorkspaceBySlug(ctx context.Context, db executor, slug string) (*model.Workspace, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, slug, name, created_at, updated_at
		FROM workspaces WHERE slug = $1`, slug)
	var ws model.Workspace
	if err := row.Scan(&ws.ID, &ws.Slug, &ws.Name, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, err
	}
	return &ws, nil
}

func queryListWorkspaces(ctx context.Context, db executor) ([]*model.Workspace, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, slug, name, created_at, updated_at
		FROM workspaces ORDER BY slug ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []*model.Workspace
	for rows.Next() {
		var ws model.Workspace
		if err := rows.Scan(&ws.ID, &ws.Slug, &ws.Name, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, &ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workspaces, nil
}

func queryCreateProject(ctx context.Context, db executor, p *model.Project) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO projects (id, name, identifier, workspace_id, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Identifier, p.WorkspaceID, nullString(p.CreatedBy),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func queryGetProject(ctx context.Context, db executor, id string) (*model.Project, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, identifier, workspace_id, created_by, created_at, updated_at
		FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

func queryListProjects(ctx context.Context, db executor, workspaceID string) ([]*model.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, identifier, workspace_id, created_by, created_at, updated_at
		FROM projects WHERE workspace_id = $1
		ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjects(rows)
}

func queryCreateIssue(ctx context.Context, db executor, i *model.Issue) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO issues (
			id, name, description, state, priority, sequence_id, sort_order,
			project_id, workspace_id, parent_id, created_by, updated_by
		) VALUES (
			$1, $2, $3, $4, $5,
			COALESCE(NULLIF($6, 0), (SELECT COALESCE(MAX(sequence_id), 0) + 1 FROM issues WHERE project_id = $8)),
			$7, $8, $9, $10, $11, $12
		)
		RETURNING sequence_id, created_at, updated_at`,
		i.ID,
		i.Name,
		nullString(i.Description),
		string(i.State),
		string(i.Priority),
		i.SequenceID,
		i.SortOrder,
		i.ProjectID,
		i.WorkspaceID,
		nullString(i.ParentID),
		nullString(i.CreatedBy),
		nullString(i.UpdatedBy),
	).Scan(&i.SequenceID, &i.CreatedAt, &i.UpdatedAt)
}

func queryGetIssue(ctx context.Context, db executor, id string) (*model.Issue, error) {
	row := db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1 AND deleted_at IS NULL`, id)
	i, err := scanIssue(row)
	if err != nil {
		return nil, err
	}

	assignees, err := queryGetAssignees(ctx, db, id)
	if err != nil {
		return nil, err
	}
	i.AssigneeIDs = assignees

	labels, err := queryGetLabels(ctx, db, id)
	if err != nil {
		return nil, err
	}
	i.LabelIDs = labels

	return i, nil
}

func queryListIssues(ctx context.Context, db executor, filter model.IssueFilter) ([]*model.Issue, int, error) {
	whereClauses := []string{"deleted_at IS NULL"}
	var args []any
	var argIdx int

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.ProjectID != "" {
		whereClauses = append(whereClauses, "project_id = "+nextArg())
		args = append(args, filter.ProjectID)
	}

	if len(filter.State) > 0 {
		placeholders := make([]string, len(filter.State))
		for i, s := range filter.State {
			placeholders[i] = nextArg()
			args = append(args, string(s))
		}
		whereClauses = append(whereClauses, "state IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.Priority) > 0 {
		placeholders := make([]string, len(filter.Priority))
		for i, p := range filter.Priority {
			placeholders[i] = nextArg()
			args = append(args, string(p))
		}
		whereClauses = append(whereClauses, "priority IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.ParentID != "" {
		whereClauses = append(whereClauses, "parent_id = "+nextArg())
		args = append(args, filter.ParentID)
	}

	if filter.Search != "" {
		p := nextArg()
		whereClauses = append(whereClauses,
			fmt.Sprintf("(name ILIKE '%%' || %s || '%%' OR description ILIKE '%%' || %s || '%%')", p, p))
		args = append(args, filter.Search)
	}

	whereSQL := " WHERE " + strings.Join(whereClauses, " AND ")

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + issueColumns + " FROM issues" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []*model.Issue
	var total int
	for rows.Next() {
		i, t, err := scanIssueWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan issues: %w", err)
		}
		total = t
		issues = append(issues, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan issues: %w", err)
	}

	return issues, total, nil
}

func queryDeleteIssue(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE issues SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryAddAssignee(ctx context.Context, db executor, issueID, memberID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO issue_assignees (issue_id, member_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		issueID, memberID,
	)
	return err
}

func queryAddLabel(ctx context.Context, db executor, issueID, labelID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO issue_labels (issue_id, label_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		issueID, labelID,
	)
	return err
}

func queryGetAssignees(ctx context.Context, db executor, issueID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT member_id FROM issue_assignees WHERE issue_id = $1`, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func queryGetLabels(ctx context.Context, db executor, issueID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT label_id FROM issue_labels WHERE issue_id = $1`, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func queryAddLink(ctx context.Context, db executor, l *model.IssueLink) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO issue_links (id, issue_id, title, url, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		l.ID, l.IssueID, nullString(l.Title), l.URL, nullString(l.CreatedBy),
	).Scan(&l.CreatedAt)
}

// queryListRelationEdges fetches every live edge touching issueID in either
// direction, joined to the summary of the issue on the far side. Soft-deleted
// issues and edges never surface. Ordered most-recently-created edge first;
// categorization happens in model.GroupRelations.
func queryListRelationEdges(ctx context.Context, db executor, issueID string) ([]*model.RelationEdge, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT r.issue_id, r.related_issue_id, r.relation_type, r.created_at,
			i.id, i.name, i.state, i.priority, i.sequence_id, i.sort_order, i.project_id,
			i.created_by, i.created_at, i.updated_at,
			(SELECT COUNT(*) FROM issues c WHERE c.parent_id = i.id AND c.deleted_at IS NULL) AS sub_issues_count,
			(SELECT COUNT(*) FROM issue_attachments a WHERE a.issue_id = i.id) AS attachment_count,
			(SELECT COUNT(*) FROM issue_links l WHERE l.issue_id = i.id) AS link_count,
			COALESCE((SELECT ARRAY_AGG(DISTINCT il.label_id) FROM issue_labels il WHERE il.issue_id = i.id), '{}') AS label_ids,
			COALESCE((SELECT ARRAY_AGG(DISTINCT ia.member_id) FROM issue_assignees ia WHERE ia.issue_id = i.id), '{}') AS assignee_ids
		FROM issue_relations r
		JOIN issues i ON i.id = CASE WHEN r.issue_id = $1 THEN r.related_issue_id ELSE r.issue_id END
		WHERE (r.issue_id = $1 OR r.related_issue_id = $1)
			AND r.deleted_at IS NULL
			AND i.deleted_at IS NULL
		ORDER BY r.created_at DESC`,
		issueID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRelationEdges(rows)
}

// queryInsertRelation inserts one edge with conflict-ignore semantics.
// Returns false when an identical edge already exists.
func queryInsertRelation(ctx context.Context, db executor, r *model.Relation) (bool, error) {
	err := db.QueryRowContext(ctx, `
		INSERT INTO issue_relations (
			id, issue_id, related_issue_id, relation_type, project_id, workspace_id,
			created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (issue_id, related_issue_id, relation_type, project_id) DO NOTHING
		RETURNING id, created_at, updated_at`,
		r.ID,
		r.IssueID,
		r.RelatedIssueID,
		string(r.RelationType),
		r.ProjectID,
		r.WorkspaceID,
		nullString(r.CreatedBy),
		nullString(r.UpdatedBy),
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func queryGetRelation(ctx context.Context, db executor, sourceID, relatedID string, relType model.RelationType, projectID string) (*model.Relation, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+relationColumns+`
		FROM issue_relations
		WHERE issue_id = $1 AND related_issue_id = $2 AND relation_type = $3 AND project_id = $4
			AND deleted_at IS NULL`,
		sourceID, relatedID, string(relType), projectID,
	)
	return scanRelation(row)
}

// queryListRelations fetches every live stored edge, ordered by id for a
// stable export. workspaceID narrows the result when non-empty.
func queryListRelations(ctx context.Context, db executor, workspaceID string) ([]*model.Relation, error) {
	query := `SELECT ` + relationColumns + ` FROM issue_relations WHERE deleted_at IS NULL`
	var args []any
	if workspaceID != "" {
		query += ` AND workspace_id = $1`
		args = append(args, workspaceID)
	}
	query += ` ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRelations(rows)
}

func queryDeleteRelation(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM issue_relations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryRecordActivity(ctx context.Context, db executor, a *model.Activity) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO activities (
			kind, actor_id, issue_id, project_id, workspace_id,
			requested_data, current_instance, epoch, origin
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		a.Kind,
		nullString(a.ActorID),
		a.IssueID,
		a.ProjectID,
		a.WorkspaceID,
		jsonbBytes(a.RequestedData),
		jsonbBytes(a.CurrentInstance),
		a.Epoch,
		nullString(a.Origin),
	).Scan(&a.ID, &a.CreatedAt)
}

func queryListActivities(ctx context.Context, db executor, issueID string) ([]*model.Activity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, kind, actor_id, issue_id, project_id, workspace_id,
			requested_data, current_instance, epoch, origin, created_at
		FROM activities
		WHERE issue_id = $1
		ORDER BY created_at ASC`,
		issueID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func queryRecordNotification(ctx context.Context, db executor, n *model.Notification) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO notifications (recipient_id, kind, issue_id, project_id, workspace_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		n.RecipientID,
		n.Kind,
		n.IssueID,
		n.ProjectID,
		n.WorkspaceID,
		jsonbBytes(n.Payload),
	).Scan(&n.ID, &n.CreatedAt)
}

func queryListNotifications(ctx context.Context, db executor, issueID string) ([]*model.Notification, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, recipient_id, kind, issue_id, project_id, workspace_id, payload, created_at, read_at
		FROM notifications
		WHERE issue_id = $1
		ORDER BY created_at DESC`,
		issueID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func parseSortClause(sort string) string {
	if sort == "" {
		return "created_at DESC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"created_at": true, "updated_at": true, "name": true,
		"state": true, "priority": true, "sequence_id": true, "sort_order": true,
	}
	if !allowed[col] {
		return "created_at DESC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
