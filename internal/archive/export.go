// Package archive periodically exports the full workspace graph as JSONL to
// one or more destinations (S3-compatible storage, a git repo).
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/trellis-pm/trellis/internal/model"
	"github.com/trellis-pm/trellis/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version        string    `json:"version"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	WorkspaceCount int       `json:"workspace_count"`
	ProjectCount   int       `json:"project_count"`
	IssueCount     int       `json:"issue_count"`
	RelationCount  int       `json:"relation_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every workspace, project, live issue, and live relation
// edge from the store as JSONL to w. Issues include embedded assignee and
// label ids.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	workspaces, err := s.ListWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("list workspaces: %w", err)
	}

	var projects []*model.Project
	for _, ws := range workspaces {
		p, err := s.ListProjects(ctx, ws.ID)
		if err != nil {
			return fmt.Errorf("list projects for %s: %w", ws.Slug, err)
		}
		projects = append(projects, p...)
	}

	var issues []*model.Issue
	for _, p := range projects {
		// Oldest first for a stable, diff-friendly export.
		batch, _, err := s.ListIssues(ctx, model.IssueFilter{ProjectID: p.ID, Sort: "created_at"})
		if err != nil {
			return fmt.Errorf("list issues for %s: %w", p.ID, err)
		}
		for _, i := range batch {
			full, err := s.GetIssue(ctx, i.ID)
			if err != nil {
				return fmt.Errorf("get issue %s: %w", i.ID, err)
			}
			issues = append(issues, full)
		}
	}

	relations, err := s.ListRelations(ctx, "")
	if err != nil {
		return fmt.Errorf("list relations: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:        "1",
		Type:           "header",
		Timestamp:      time.Now().UTC(),
		WorkspaceCount: len(workspaces),
		ProjectCount:   len(projects),
		IssueCount:     len(issues),
		RelationCount:  len(relations),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, ws := range workspaces {
		if err := enc.Encode(record{Type: "workspace", Data: ws}); err != nil {
			return fmt.Errorf("encode workspace %s: %w", ws.ID, err)
		}
	}
	for _, p := range projects {
		if err := enc.Encode(record{Type: "project", Data: p}); err != nil {
			return fmt.Errorf("encode project %s: %w", p.ID, err)
		}
	}
	for _, i := range issues {
		if err := enc.Encode(record{Type: "issue", Data: i}); err != nil {
			return fmt.Errorf("encode issue %s: %w", i.ID, err)
		}
	}
	for _, r := range relations {
		if err := enc.Encode(record{Type: "relation", Data: r}); err != nil {
			return fmt.Errorf("encode relation %s: %w", r.ID, err)
		}
	}

	return nil
}
