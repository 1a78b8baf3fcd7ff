package main

import (
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trellis-pm/trellis/internal/client"
	"github.com/trellis-pm/trellis/internal/ui"
)

var (
	httpURL    string
	workspace  string
	project    string
	jsonOutput bool
	actor      string

	trellisClient client.TrellisClient
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultHTTPURL() string {
	if s := os.Getenv("TRELLIS_HTTP_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultWorkspace() string {
	if s := os.Getenv("TRELLIS_WORKSPACE"); s != "" {
		return s
	}
	return activeRemoteWorkspace()
}

func defaultProject() string {
	if s := os.Getenv("TRELLIS_PROJECT"); s != "" {
		return s
	}
	return activeRemoteProject()
}

func authToken() string {
	if s := os.Getenv("TRELLIS_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "tl <command>",
	Short: "CLI client for the Trellis issue tracker",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		trellisClient = client.NewHTTPClient(httpURL, authToken())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if trellisClient != nil {
			trellisClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", defaultWorkspace(), "workspace slug")
	rootCmd.PersistentFlags().StringVarP(&project, "project", "p", defaultProject(), "project id")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name for created_by fields")

	rootCmd.AddGroup(
		&cobra.Group{ID: "issues", Title: "Issues:"},
		&cobra.Group{ID: "relations", Title: "Relations:"},
		&cobra.Group{ID: "structure", Title: "Workspaces & Projects:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false

	// Issues
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(watchCmd)

	// Relations
	rootCmd.AddCommand(relateCmd)
	rootCmd.AddCommand(unrelateCmd)
	rootCmd.AddCommand(relationsCmd)

	// Workspaces & Projects
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(projectCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

// requireScope validates that --workspace and --project are set for commands
// that operate inside a project.
func requireScope() error {
	if workspace == "" {
		return errMissingWorkspace
	}
	if project == "" {
		return errMissingProject
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
