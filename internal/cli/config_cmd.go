package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/soyeahso/aiosforge/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// redacted replaces credentials in config show output.
const redacted = "********"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit config.yaml",
		Long: "Keys are dotted paths into config.yaml, e.g. server.port or assistant.model. " +
			"set parses true/false and numbers into typed values. Edits that would leave " +
			"an invalid config (a bad port, an unknown bind mode, a non-http gateway URL) are refused.",
	}

	cmd.AddCommand(
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigUnsetCmd(),
		newConfigShowCmd(),
		newConfigPathCmd(),
	)
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a value stored in config.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := config.ParseConfigPath(args[0])
			if err != nil {
				return err
			}
			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				return err
			}
			val, ok := config.GetValueAtPath(raw, key)
			if !ok {
				return fmt.Errorf("key %q not found in %s", args[0], paths.Config)
			}
			return printValue(cmd.OutOrStdout(), val)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Store a value in config.yaml",
		Example: "  aiosforge config set server.port 9000\n  aiosforge config set assistant.baseUrl http://localhost:4000/v1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := parseValue(args[1])
			err := editConfig(args[0], func(raw map[string]any, key []string) error {
				config.SetValueAtPath(raw, key, value)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", args[0], value)
			return nil
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a value from config.yaml so its default applies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := editConfig(args[0], func(raw map[string]any, key []string) error {
				if !config.UnsetValueAtPath(raw, key) {
					return fmt.Errorf("key %q not found in %s", args[0], paths.Config)
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective config with defaults and environment overrides applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if cfg.Server.Auth.Token != "" {
				cfg.Server.Auth.Token = redacted
			}
			if cfg.Assistant.APIKey != "" {
				cfg.Assistant.APIKey = redacted
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), paths.Config)
		},
	}
}

// editConfig applies edit to the raw config at dotted key and saves the
// result only if it still decodes and validates as a Config.
func editConfig(dotted string, edit func(raw map[string]any, key []string) error) error {
	key, err := config.ParseConfigPath(dotted)
	if err != nil {
		return err
	}
	raw, err := config.LoadRaw(paths.Config)
	if err != nil {
		return err
	}
	if err := edit(raw, key); err != nil {
		return err
	}

	cfg, err := config.FromRaw(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", dotted, err)
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		msgs := make([]string, len(issues))
		for i, is := range issues {
			msgs[i] = is.String()
		}
		return fmt.Errorf("refusing to save invalid config: %s", strings.Join(msgs, "; "))
	}
	return config.SaveRaw(paths.Config, raw)
}

// printValue writes scalars on one line and maps or lists as YAML.
func printValue(w io.Writer, v any) error {
	switch v.(type) {
	case map[string]any, []any:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	_, err := fmt.Fprintln(w, v)
	return err
}

// parseValue types a command line value: booleans, integers written in
// canonical form, then finite floats. Anything else stays a string.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil && strconv.Itoa(n) == s {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return s
}
