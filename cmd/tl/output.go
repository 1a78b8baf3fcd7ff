package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/trellis-pm/trellis/internal/model"
	"github.com/trellis-pm/trellis/internal/ui"
)

var (
	errMissingWorkspace = errors.New("workspace is required (use --workspace, TRELLIS_WORKSPACE, or a remote default)")
	errMissingProject   = errors.New("project is required (use --project, TRELLIS_PROJECT, or a remote default)")
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printIssueTable(issue *model.Issue) {
	fmt.Printf("ID:          %s\n", issue.ID)
	fmt.Printf("Name:        %s\n", issue.Name)
	fmt.Printf("Sequence:    #%d\n", issue.SequenceID)
	fmt.Printf("State:       %s\n", ui.RenderState(issue.State))
	fmt.Printf("Priority:    %s\n", ui.RenderPriority(issue.Priority))
	if issue.ParentID != "" {
		fmt.Printf("Parent:      %s\n", issue.ParentID)
	}
	if issue.Description != "" {
		fmt.Printf("Description: %s\n", issue.Description)
	}
	if len(issue.AssigneeIDs) > 0 {
		fmt.Printf("Assignees:   %s\n", strings.Join(issue.AssigneeIDs, ", "))
	}
	if len(issue.LabelIDs) > 0 {
		fmt.Printf("Labels:      %s\n", strings.Join(issue.LabelIDs, ", "))
	}
	fmt.Printf("Created By:  %s\n", issue.CreatedBy)
	if !issue.CreatedAt.IsZero() {
		fmt.Printf("Created At:  %s\n", issue.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if !issue.UpdatedAt.IsZero() {
		fmt.Printf("Updated At:  %s\n", issue.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printIssueListTable(issues []*model.Issue, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEQ\tSTATE\tPRIORITY\tNAME")
	for _, i := range issues {
		name := i.Name
		if len(name) > 50 {
			name = name[:47] + "..."
		}
		fmt.Fprintf(w, "%s\t#%d\t%s\t%s\t%s\n",
			i.ID,
			i.SequenceID,
			i.State,
			i.Priority,
			name,
		)
	}
	w.Flush()
	fmt.Printf("\n%d issues (%d total)\n", len(issues), total)
}

func printRelationGroups(groups *model.RelationGroups) {
	sections := []struct {
		label   string
		entries []*model.IssueSummary
	}{
		{"blocking", groups.Blocking},
		{"blocked_by", groups.BlockedBy},
		{"duplicate", groups.Duplicate},
		{"relates_to", groups.RelatesTo},
	}
	any := false
	for _, sec := range sections {
		if len(sec.entries) == 0 {
			continue
		}
		any = true
		fmt.Println(ui.RenderRelation(model.RelationType(sec.label)) + ":")
		for _, s := range sec.entries {
			fmt.Printf("  %s  #%-5d %s  %s\n", s.ID, s.SequenceID, ui.RenderState(s.State), s.Name)
		}
	}
	if !any {
		fmt.Println(ui.RenderMuted("no relations"))
	}
}

func printActivityTable(activities []*model.Activity) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tACTOR")
	for _, a := range activities {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			a.CreatedAt.Format("2006-01-02 15:04:05"),
			a.Kind,
			a.ActorID,
		)
	}
	w.Flush()
}
