// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/trellis-pm/trellis/internal/model"
	"github.com/trellis-pm/trellis/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateWorkspace(ctx context.Context, ws *model.Workspace) error {
	return queryCreateWorkspace(ctx, s.db, ws)
}

func (s *PostgresStore) GetWorkspaceBySlug(ctx context.Context, slug string) (*model.Workspace, error) {
	return queryGetWorkspaceBySlug(ctx, s.db, slug)
}

func (s *PostgresStore) ListWorkspaces(ctx context.Context) ([]*model.Workspace, error) {
	return queryListWorkspaces(ctx, s.db)
}

func (s *PostgresStore) CreateProject(ctx context.Context, p *model.Project) error {
	return queryCreateProject(ctx, s.db, p)
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return queryGetProject(ctx, s.db, id)
}

func (s *PostgresStore) ListProjects(ctx context.Context, workspaceID string) ([]*model.Project, error) {
	return queryListProjects(ctx, s.db, workspaceID)
}

func (s *PostgresStore) CreateIssue(ctx context.Context, issue *model.Issue) error {
	return queryCreateIssue(ctx, s.db, issue)
}

func (s *PostgresStore) GetIssue(ctx context.Context, id string) (*model.Issue, error) {
	return queryGetIssue(ctx, s.db, id)
}

func (s *PostgresStore) ListIssues(ctx context.Context, filter model.IssueFilter) ([]*model.Issue, int, error) {
	return queryListIssues(ctx, s.db, filter)
}

func (s *PostgresStore) DeleteIssue(ctx context.Context, id string) error {
	return queryDeleteIssue(ctx, s.db, id)
}

func (s *PostgresStore) AddAssignee(ctx context.Context, issueID, memberID string) error {
	return queryAddAssignee(ctx, s.db, issueID, memberID)
}

func (s *PostgresStore) AddLabel(ctx context.Context, issueID, labelID string) error {
	return queryAddLabel(ctx, s.db, issueID, labelID)
}

func (s *PostgresStore) AddLink(ctx context.Context, link *model.IssueLink) error {
	return queryAddLink(ctx, s.db, link)
}

func (s *PostgresStore) ListIssueRelations(ctx context.Context, issueID string) (*model.RelationGroups, error) {
	edges, err := queryListRelationEdges(ctx, s.db, issueID)
	if err != nil {
		return nil, err
	}
	return model.GroupRelations(issueID, edges), nil
}

func (s *PostgresStore) ListRelations(ctx context.Context, workspaceID string) ([]*model.Relation, error) {
	return queryListRelations(ctx, s.db, workspaceID)
}

// CreateRelations inserts the batch inside a single transaction with
// conflict-ignore semantics, returning only the edges actually stored.
func (s *PostgresStore) CreateRelations(ctx context.Context, relations []*model.Relation) ([]*model.Relation, error) {
	var created []*model.Relation
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		created, err = tx.CreateRelations(ctx, relations)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RemoveRelation captures the edge state and hard-deletes it inside a single
// transaction, so a crash cannot leave a deleted-but-unaudited edge.
func (s *PostgresStore) RemoveRelation(ctx context.Context, sourceID, relatedID string, relType model.RelationType, projectID string) (*model.Relation, error) {
	var removed *model.Relation
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		removed, err = tx.RemoveRelation(ctx, sourceID, relatedID, relType, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *PostgresStore) RecordActivity(ctx context.Context, activity *model.Activity) error {
	return queryRecordActivity(ctx, s.db, activity)
}

func (s *PostgresStore) ListActivities(ctx context.Context, issueID string) ([]*model.Activity, error) {
	return queryListActivities(ctx, s.db, issueID)
}

func (s *PostgresStore) RecordNotification(ctx context.Context, n *model.Notification) error {
	return queryRecordNotification(ctx, s.db, n)
}

func (s *PostgresStore) ListNotifications(ctx context.Context, issueID string) ([]*model.Notification, error) {
	return queryListNotifications(ctx, s.db, issueID)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateWorkspace(ctx context.Context, ws *model.Workspace) error {
	return queryCreateWorkspace(ctx, s.tx, ws)
}

func (s *txStore) GetWorkspaceBySlug(ctx context.Context, slug string) (*model.Workspace, error) {
	return queryGetWorkspaceBySlug(ctx, s.tx, slug)
}

func (s *txStore) ListWorkspaces(ctx context.Context) ([]*model.Workspace, error) {
	return queryListWorkspaces(ctx, s.tx)
}

func (s *txStore) CreateProject(ctx context.Context, p *model.Project) error {
	return queryCreateProject(ctx, s.tx, p)
}

func (s *txStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return queryGetProject(ctx, s.tx, id)
}

func (s *txStore) ListProjects(ctx context.Context, workspaceID string) ([]*model.Project, error) {
	return queryListProjects(ctx, s.tx, workspaceID)
}

func (s *txStore) CreateIssue(ctx context.Context, issue *model.Issue) error {
	return queryCreateIssue(ctx, s.tx, issue)
}

func (s *txStore) GetIssue(ctx context.Context, id string) (*model.Issue, error) {
	return queryGetIssue(ctx, s.tx, id)
}

func (s *txStore) ListIssues(ctx context.Context, filter model.IssueFilter) ([]*model.Issue, int, error) {
	return queryListIssues(ctx, s.tx, filter)
}

func (s *txStore) DeleteIssue(ctx context.Context, id string) error {
	return queryDeleteIssue(ctx, s.tx, id)
}

func (s *txStore) AddAssignee(ctx context.Context, issueID, memberID string) error {
	return queryAddAssignee(ctx, s.tx, issueID, memberID)
}

func (s *txStore) AddLabel(ctx context.Context, issueID, labelID string) error {
	return queryAddLabel(ctx, s.tx, issueID, labelID)
}

func (s *txStore) AddLink(ctx context.Context, link *model.IssueLink) error {
	return queryAddLink(ctx, s.tx, link)
}

func (s *txStore) ListIssueRelations(ctx context.Context, issueID string) (*model.RelationGroups, error) {
	edges, err := queryListRelationEdges(ctx, s.tx, issueID)
	if err != nil {
		return nil, err
	}
	return model.GroupRelations(issueID, edges), nil
}

func (s *txStore) ListRelations(ctx context.Context, workspaceID string) ([]*model.Relation, error) {
	return queryListRelations(ctx, s.tx, workspaceID)
}

func (s *txStore) CreateRelations(ctx context.Context, relations []*model.Relation) ([]*model.Relation, error) {
	var created []*model.Relation
	for _, r := range relations {
		inserted, err := queryInsertRelation(ctx, s.tx, r)
		if err != nil {
			return nil, fmt.Errorf("insert relation %s -> %s: %w", r.IssueID, r.RelatedIssueID, err)
		}
		if inserted {
			created = append(created, r)
		}
	}
	return created, nil
}

func (s *txStore) RemoveRelation(ctx context.Context, sourceID, relatedID string, relType model.RelationType, projectID string) (*model.Relation, error) {
	rel, err := queryGetRelation(ctx, s.tx, sourceID, relatedID, relType, projectID)
	if err != nil {
		return nil, err
	}
	if err := queryDeleteRelation(ctx, s.tx, rel.ID); err != nil {
		return nil, err
	}
	return rel, nil
}

func (s *txStore) RecordActivity(ctx context.Context, activity *model.Activity) error {
	return queryRecordActivity(ctx, s.tx, activity)
}

func (s *txStore) ListActivities(ctx context.Context, issueID string) ([]*model.Activity, error) {
	return queryListActivities(ctx, s.tx, issueID)
}

func (s *txStore) RecordNotification(ctx context.Context, n *model.Notification) error {
	return queryRecordNotification(ctx, s.tx, n)
}

func (s *txStore) ListNotifications(ctx context.Context, issueID string) ([]*model.Notification, error) {
	return queryListNotifications(ctx, s.tx, issueID)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
