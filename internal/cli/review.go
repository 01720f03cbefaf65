package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/aiosforge/internal/assistant"
	"github.com/soyeahso/aiosforge/internal/config"
	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/generator"
	"github.com/spf13/cobra"
)

// requireAssistant loads the config and builds the assistant, failing when
// no gateway is configured.
func requireAssistant() (config.Config, *assistant.Assistant, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	a := newAssistant(cfg)
	if a == nil {
		return cfg, nil, fmt.Errorf("no assistant gateway configured (set assistant.baseUrl or AIOSFORGE_GATEWAY_URL)")
	}
	return cfg, a, nil
}

func newReviewCmd() *cobra.Command {
	var (
		modelFile string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Ask the assistant to review the generated files for compliance",
		Long: "Review generates the scaffold for the model and sends it to the LLM reviewer. " +
			"Use --json to save the verdicts for generate --compliance.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readModel(modelFile)
			if err != nil {
				return err
			}
			if issues := domain.Validate(m); len(issues) > 0 {
				return issuesError(cmd, issues)
			}
			_, a, err := requireAssistant()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			results, err := a.Review(ctx, generator.Generate(m, nil))
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"results": results})
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", r.Status, r.Path)
				if r.Notes != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "         %s\n", r.Notes)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelFile, "model", "", "project model file (.yaml or .json)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print verdicts as JSON")
	return cmd
}
