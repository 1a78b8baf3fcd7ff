package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trellis-pm/trellis/internal/client"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Short:   "Manage workspaces",
	GroupID: "structure",
}

var workspaceCreateCmd = &cobra.Command{
	Use:   "create <slug>",
	Short: "Create a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		ws, err := trellisClient.CreateWorkspace(context.Background(), &client.CreateWorkspaceRequest{
			Slug: args[0],
			Name: name,
		})
		if err != nil {
			return fmt.Errorf("creating workspace: %w", err)
		}

		if jsonOutput {
			printJSON(ws)
		} else {
			fmt.Printf("workspace %s created (%s)\n", ws.Slug, ws.ID)
		}
		return nil
	},
}

var workspaceShowCmd = &cobra.Command{
	Use:   "show [<slug>]",
	Short: "Show a workspace (defaults to current)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := workspace
		if len(args) == 1 {
			slug = args[0]
		}
		if slug == "" {
			return errMissingWorkspace
		}

		ws, err := trellisClient.GetWorkspace(context.Background(), slug)
		if err != nil {
			return fmt.Errorf("fetching workspace: %w", err)
		}

		if jsonOutput {
			printJSON(ws)
		} else {
			fmt.Printf("slug: %s\nname: %s\nid:   %s\n", ws.Slug, ws.Name, ws.ID)
		}
		return nil
	},
}

func init() {
	workspaceCreateCmd.Flags().String("name", "", "display name (defaults to slug)")

	workspaceCmd.AddCommand(workspaceCreateCmd)
	workspaceCmd.AddCommand(workspaceShowCmd)
}
