package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/soyeahso/aiosforge/internal/config"
	"github.com/soyeahso/aiosforge/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aiosforge",
		Short: "aiosforge builds AIOS multi-agent project scaffolds",
		Long: "aiosforge turns a project model (agents, squads, workflows, integrations) " +
			"into a ready-to-run AIOS scaffold, and serves the wizard API that builds those models.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			if err := loadEnvFiles(paths.Env, ".env"); err != nil {
				return err
			}
			level := logLevel
			if level == "" {
				level = "warn"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.aiosforge/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newDiagramCmd())
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newProjectCmd())
	cmd.AddCommand(newReviewCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// loadEnvFiles loads KEY=VALUE files so ${VAR} references in the config
// resolve. Missing files are skipped and existing variables win.
func loadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// loadConfig reads and validates the config and rebuilds the logger from
// its logging section unless --log-level was given.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	format := logging.FormatConsole
	if cfg.Logging.ConsoleStyle == "json" {
		format = logging.FormatJSON
	}
	log = logging.NewWithOptions(logging.Options{Level: level, Format: format})
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
