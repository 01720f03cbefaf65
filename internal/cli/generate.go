package cli

import (
	"fmt"

	"github.com/soyeahso/aiosforge/internal/diagram"
	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/generator"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var (
		modelFile      string
		outDir         string
		zipPath        string
		complianceFile string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the project scaffold for a model file",
		Long: "Generate renders every scaffold file for the model. With --out the files are " +
			"written to a directory, with --zip to an archive, otherwise the manifest is printed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, err := readModel(modelFile)
			if err != nil {
				return err
			}
			if issues := domain.Validate(m); len(issues) > 0 {
				return issuesError(cmd, issues)
			}
			compliance, err := readCompliance(complianceFile)
			if err != nil {
				return err
			}

			files := generator.Generate(m, compliance)
			log.Debug().Int("files", len(files)).Str("project", m.Project.Name).Msg("generated scaffold")
			return writeFiles(cmd.OutOrStdout(), cfg, m.Project.Name, outDir, zipPath, files)
		},
	}

	cmd.Flags().StringVar(&modelFile, "model", "", "project model file (.yaml or .json)")
	cmd.Flags().StringVar(&outDir, "out", "", "write files to this directory")
	cmd.Flags().StringVar(&zipPath, "zip", "", "write a ZIP archive to this path")
	cmd.Flags().StringVar(&complianceFile, "compliance", "", "reviewer verdicts to apply (output of review --json)")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var modelFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a model file for referential problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readModel(modelFile)
			if err != nil {
				return err
			}
			if issues := domain.Validate(m); len(issues) > 0 {
				return issuesError(cmd, issues)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Model is valid")
			return nil
		},
	}

	cmd.Flags().StringVar(&modelFile, "model", "", "project model file (.yaml or .json)")
	return cmd
}

// issuesError prints issues and returns an error summarizing them.
func issuesError(cmd *cobra.Command, issues []domain.ValidationIssue) error {
	w := cmd.ErrOrStderr()
	for _, issue := range issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
	return fmt.Errorf("model has %d validation issue(s)", len(issues))
}

func newDiagramCmd() *cobra.Command {
	var (
		modelFile string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Render the agent graph of a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readModel(modelFile)
			if err != nil {
				return err
			}
			switch format {
			case "ascii":
				fmt.Fprint(cmd.OutOrStdout(), diagram.RenderASCII(m))
				return nil
			case "json":
				return printJSON(cmd.OutOrStdout(), diagram.Build(m))
			default:
				return fmt.Errorf("unknown format %q (ascii, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&modelFile, "model", "", "project model file (.yaml or .json)")
	cmd.Flags().StringVar(&format, "format", "ascii", "output format (ascii, json)")
	return cmd
}
