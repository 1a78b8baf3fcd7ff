package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trellis-pm/trellis/internal/client"
)

var createCmd = &cobra.Command{
	Use:     "create <name>",
	Short:   "Create a new issue",
	GroupID: "issues",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}

		description, _ := cmd.Flags().GetString("description")
		state, _ := cmd.Flags().GetString("state")
		priority, _ := cmd.Flags().GetString("priority")
		parentID, _ := cmd.Flags().GetString("parent")
		assignees, _ := cmd.Flags().GetStringSlice("assignee")
		labels, _ := cmd.Flags().GetStringSlice("label")

		req := &client.CreateIssueRequest{
			Name:        args[0],
			Description: description,
			State:       state,
			Priority:    priority,
			ParentID:    parentID,
			AssigneeIDs: assignees,
			LabelIDs:    labels,
			CreatedBy:   actor,
		}

		issue, err := trellisClient.CreateIssue(context.Background(), workspace, project, req)
		if err != nil {
			return fmt.Errorf("creating issue: %w", err)
		}

		if jsonOutput {
			printJSON(issue)
		} else {
			printIssueTable(issue)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show <issue-id>",
	Short:   "Show an issue",
	GroupID: "issues",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}

		issue, err := trellisClient.GetIssue(context.Background(), workspace, project, args[0])
		if err != nil {
			return fmt.Errorf("fetching issue: %w", err)
		}

		if jsonOutput {
			printJSON(issue)
		} else {
			printIssueTable(issue)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List issues in the current project",
	GroupID: "issues",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}

		states, _ := cmd.Flags().GetStringSlice("state")
		priorities, _ := cmd.Flags().GetStringSlice("priority")
		parentID, _ := cmd.Flags().GetString("parent")
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		resp, err := trellisClient.ListIssues(context.Background(), workspace, project, &client.ListIssuesRequest{
			State:    states,
			Priority: priorities,
			ParentID: parentID,
			Search:   search,
			Sort:     sort,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return fmt.Errorf("listing issues: %w", err)
		}

		if jsonOutput {
			printJSON(resp)
		} else {
			printIssueListTable(resp.Issues, resp.Total)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <issue-id>",
	Short:   "Delete an issue",
	GroupID: "issues",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}

		if err := trellisClient.DeleteIssue(context.Background(), workspace, project, args[0]); err != nil {
			return fmt.Errorf("deleting issue: %w", err)
		}
		fmt.Printf("issue %s deleted\n", args[0])
		return nil
	},
}

var linkCmd = &cobra.Command{
	Use:     "link <issue-id> <url>",
	Short:   "Attach an external link to an issue",
	GroupID: "issues",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")

		link, err := trellisClient.AddLink(context.Background(), workspace, project, args[0], &client.AddLinkRequest{
			Title:     title,
			URL:       args[1],
			CreatedBy: actor,
		})
		if err != nil {
			return fmt.Errorf("adding link: %w", err)
		}

		if jsonOutput {
			printJSON(link)
		} else {
			fmt.Printf("link %s added to %s\n", link.ID, link.IssueID)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringP("description", "d", "", "issue description")
	createCmd.Flags().StringP("state", "s", "", "workflow state (backlog, unstarted, started, completed, cancelled)")
	createCmd.Flags().String("priority", "", "priority (urgent, high, medium, low, none)")
	createCmd.Flags().String("parent", "", "parent issue id")
	createCmd.Flags().StringSliceP("assignee", "a", nil, "assignee member ids (repeatable)")
	createCmd.Flags().StringSliceP("label", "l", nil, "label ids (repeatable)")

	listCmd.Flags().StringSliceP("state", "s", nil, "filter by state (repeatable)")
	listCmd.Flags().StringSlice("priority", nil, "filter by priority (repeatable)")
	listCmd.Flags().String("parent", "", "filter by parent issue id")
	listCmd.Flags().String("search", "", "search in name and description")
	listCmd.Flags().String("sort", "", "sort column (prefix with - for descending)")
	listCmd.Flags().Int("limit", 0, "maximum number of issues")
	listCmd.Flags().Int("offset", 0, "number of issues to skip")

	linkCmd.Flags().String("title", "", "link title")
}
