package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var activityCmd = &cobra.Command{
	Use:     "activity <issue-id>",
	Short:   "Show the audit trail for an issue",
	GroupID: "issues",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}

		activities, err := trellisClient.ListActivities(context.Background(), workspace, project, args[0])
		if err != nil {
			return fmt.Errorf("listing activities: %w", err)
		}

		if jsonOutput {
			printJSON(activities)
		} else {
			printActivityTable(activities)
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the trellis service",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := trellisClient.Health(context.Background())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}

		if jsonOutput {
			printJSON(map[string]string{"status": status})
		} else {
			fmt.Printf("Health: %s\n", status)
		}

		if status != "ok" {
			return fmt.Errorf("unhealthy: %s", status)
		}
		return nil
	},
}
