package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/soyeahso/aiosforge/internal/config"
	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/generator"
	"github.com/soyeahso/aiosforge/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage saved projects",
	}

	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectShowCmd())
	cmd.AddCommand(newProjectSaveCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	cmd.AddCommand(newProjectExportCmd())

	return cmd
}

// withStores loads the config, opens the database and runs fn against it.
func withStores(fn func(cfg config.Config, projects *store.ProjectStore, files *store.FileStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, store.NewProjectStore(db), store.NewFileStore(db))
}

func newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(_ config.Config, projects *store.ProjectStore, _ *store.FileStore) error {
				list, err := projects.List()
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No saved projects")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tPATTERN\tAGENTS\tSQUADS\tUPDATED")
				for _, p := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
						p.ID, p.Name, p.Pattern, p.Agents, p.Squads, p.UpdatedAt.Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			})
		},
	}
}

func newProjectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved project model as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(_ config.Config, projects *store.ProjectStore, _ *store.FileStore) error {
				m, err := projects.Load(args[0])
				if err != nil {
					return projectError(args[0], err)
				}
				data, err := yaml.Marshal(m)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

func newProjectSaveCmd() *cobra.Command {
	var modelFile string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a model file as a project",
		Long: "Save stores the model. A model whose project has an id overwrites " +
			"that project, otherwise a new id is assigned and printed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readModel(modelFile)
			if err != nil {
				return err
			}
			if issues := domain.Validate(m); len(issues) > 0 {
				return issuesError(cmd, issues)
			}
			return withStores(func(_ config.Config, projects *store.ProjectStore, _ *store.FileStore) error {
				id, err := projects.Save(m)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&modelFile, "model", "", "project model file (.yaml or .json)")
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved project and its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(_ config.Config, projects *store.ProjectStore, _ *store.FileStore) error {
				if err := projects.Delete(args[0]); err != nil {
					return projectError(args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newProjectExportCmd() *cobra.Command {
	var (
		outDir  string
		zipPath string
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a saved project's files to a directory or ZIP archive",
		Long: "Export writes the files stored for the project, or freshly generated " +
			"files when none have been stored yet.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" && zipPath == "" {
				return fmt.Errorf("one of --out or --zip is required")
			}
			return withStores(func(cfg config.Config, projects *store.ProjectStore, fileStore *store.FileStore) error {
				m, err := projects.Load(args[0])
				if err != nil {
					return projectError(args[0], err)
				}
				files, err := fileStore.List(args[0])
				if err != nil {
					return err
				}
				if len(files) == 0 {
					files = generator.Generate(m, nil)
				}
				return writeFiles(cmd.OutOrStdout(), cfg, m.Project.Name, outDir, zipPath, files)
			})
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "write files to this directory")
	cmd.Flags().StringVar(&zipPath, "zip", "", "write a ZIP archive to this path")
	return cmd
}

func projectError(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("project %q not found", id)
	}
	return err
}
