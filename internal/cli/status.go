package cli

import (
	"fmt"
	"os"

	"github.com/soyeahso/aiosforge/internal/config"
	"github.com/soyeahso/aiosforge/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show aiosforge status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "aiosforge %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Fprintf(w, "Config:    %s\n", paths.Config)
			fmt.Fprintf(w, "Data:      %s\n", paths.Data)
			fmt.Fprintf(w, "Exports:   %s\n", paths.Exports)
			fmt.Fprintln(w)

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(w, "Config:    not found (using defaults)")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(w, "Config:    error loading: %v\n", err)
				return nil
			}

			auth := "none"
			if cfg.Server.Auth.Token != "" {
				auth = "token"
			}
			fmt.Fprintf(w, "Server:    port=%d bind=%s auth=%s\n", cfg.Server.Port, cfg.Server.Bind, auth)

			if cfg.Assistant.Enabled() {
				fmt.Fprintf(w, "Assistant: gateway=%s model=%s\n", cfg.Assistant.BaseURL, cfg.Assistant.Model)
			} else {
				fmt.Fprintln(w, "Assistant: (not configured)")
			}

			dbPath := paths.DatabasePath(cfg)
			if _, err := os.Stat(dbPath); err == nil {
				fmt.Fprintf(w, "Store:     %s\n", dbPath)
			} else {
				fmt.Fprintf(w, "Store:     %s (not created yet)\n", dbPath)
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(w, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(w, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
