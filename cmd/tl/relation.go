package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trellis-pm/trellis/internal/client"
)

var relateCmd = &cobra.Command{
	Use:     "relate <issue-id> <type> <target-id>...",
	Short:   "Relate an issue to one or more others",
	Long: `Relate an issue to one or more others.

The relation type is one of: blocking, blocked_by, duplicate, relates_to.
"blocking" means the issue blocks the targets; it is stored as the targets
being blocked by the issue. Edges that already exist are silently skipped.`,
	GroupID: "relations",
	Args:    cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}

		issueID, relType, targets := args[0], args[1], args[2:]
		created, err := trellisClient.CreateRelations(context.Background(), workspace, project, issueID, &client.CreateRelationsRequest{
			RelationType: relType,
			Issues:       targets,
			CreatedBy:    actor,
		})
		if err != nil {
			return fmt.Errorf("creating relations: %w", err)
		}

		if jsonOutput {
			printJSON(map[string]any{"relations": created})
			return nil
		}
		if len(created) == 0 {
			fmt.Println("no new relations (all already exist)")
			return nil
		}
		for _, r := range created {
			fmt.Printf("%s %s %s\n", r.IssueID, r.RelationType, r.RelatedIssueID)
		}
		return nil
	},
}

var unrelateCmd = &cobra.Command{
	Use:     "unrelate <issue-id> <type> <target-id>",
	Short:   "Remove a relation between two issues",
	GroupID: "relations",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}

		issueID, relType, target := args[0], args[1], args[2]
		err := trellisClient.RemoveRelation(context.Background(), workspace, project, issueID, &client.RemoveRelationRequest{
			RelationType: relType,
			RelatedIssue: target,
			Actor:        actor,
		})
		if err != nil {
			return fmt.Errorf("removing relation: %w", err)
		}
		fmt.Printf("relation removed: %s %s %s\n", issueID, relType, target)
		return nil
	},
}

var relationsCmd = &cobra.Command{
	Use:     "relations <issue-id>",
	Short:   "Show an issue's relations grouped by type",
	GroupID: "relations",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}

		groups, err := trellisClient.ListRelations(context.Background(), workspace, project, args[0])
		if err != nil {
			return fmt.Errorf("listing relations: %w", err)
		}

		if jsonOutput {
			printJSON(groups)
		} else {
			printRelationGroups(groups)
		}
		return nil
	},
}
