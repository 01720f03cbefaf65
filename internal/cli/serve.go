package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/aiosforge/internal/config"
	"github.com/soyeahso/aiosforge/internal/server"
	"github.com/soyeahso/aiosforge/internal/store"
	"github.com/spf13/cobra"
	"github.com/tillberg/autorestart"
)

func newServeCmd() *cobra.Command {
	var (
		port  int
		bind  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the wizard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			log.Info().Str("path", paths.DatabasePath(cfg)).Msg("using SQLite store")

			deps := server.Deps{
				Projects:  store.NewProjectStore(db),
				Files:     store.NewFileStore(db),
				Sessions:  store.NewSessionStore(db),
				Assistant: newAssistant(cfg),
			}
			if deps.Assistant == nil {
				log.Warn().Msg("no assistant gateway configured, chat and compliance review are unavailable")
			} else {
				log.Info().Str("model", cfg.Assistant.Model).Str("gateway", cfg.Assistant.BaseURL).Msg("assistant enabled")
			}

			if watch {
				// Re-exec when the binary on disk changes.
				go autorestart.RestartOnChange()
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg, deps, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")
	cmd.Flags().BoolVar(&watch, "watch", false, "restart when the executable is rebuilt")

	return cmd
}
