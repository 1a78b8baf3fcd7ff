package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trellis-pm/trellis/internal/client"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Short:   "Manage projects",
	GroupID: "structure",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name> <identifier>",
	Short: "Create a project in the current workspace",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			return errMissingWorkspace
		}

		p, err := trellisClient.CreateProject(context.Background(), workspace, &client.CreateProjectRequest{
			Name:       args[0],
			Identifier: args[1],
			CreatedBy:  actor,
		})
		if err != nil {
			return fmt.Errorf("creating project: %w", err)
		}

		if jsonOutput {
			printJSON(p)
		} else {
			fmt.Printf("project %s created (%s)\n", p.Identifier, p.ID)
		}
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects in the current workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			return errMissingWorkspace
		}

		projects, err := trellisClient.ListProjects(context.Background(), workspace)
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}

		if jsonOutput {
			printJSON(projects)
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tIDENTIFIER\tNAME")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Identifier, p.Name)
		}
		return w.Flush()
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show [<project-id>]",
	Short: "Show a project (defaults to current)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			return errMissingWorkspace
		}
		id := project
		if len(args) == 1 {
			id = args[0]
		}
		if id == "" {
			return errMissingProject
		}

		p, err := trellisClient.GetProject(context.Background(), workspace, id)
		if err != nil {
			return fmt.Errorf("fetching project: %w", err)
		}

		if jsonOutput {
			printJSON(p)
		} else {
			fmt.Printf("id:         %s\nname:       %s\nidentifier: %s\n", p.ID, p.Name, p.Identifier)
		}
		return nil
	},
}

func init() {
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
}
