package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so keys and tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Server.Auth.Token = expandEnvVars(cfg.Server.Auth.Token)
	cfg.Assistant.APIKey = expandEnvVars(cfg.Assistant.APIKey)
	cfg.Assistant.BaseURL = expandEnvVars(cfg.Assistant.BaseURL)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := Defaults()
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return cfg, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Parse decodes config YAML over the defaults and expands ${VAR} references
// in credential fields. Environment overrides are not applied.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	applyDefaults(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// FromRaw decodes a generic config map, as edited by the config command,
// into a Config.
func FromRaw(raw map[string]any) (Config, error) {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "loopback"
	}
	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = DefaultModel
	}
	if cfg.Assistant.MaxTokens == 0 {
		cfg.Assistant.MaxTokens = DefaultMaxTokens
	}
	if cfg.Assistant.TimeoutSeconds == 0 {
		cfg.Assistant.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads AIOSFORGE_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AIOSFORGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("AIOSFORGE_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("AIOSFORGE_TOKEN"); v != "" {
		cfg.Server.Auth.Token = v
	}
	if v := os.Getenv("AIOSFORGE_GATEWAY_URL"); v != "" {
		cfg.Assistant.BaseURL = v
	}
	if v := os.Getenv("AIOSFORGE_GATEWAY_KEY"); v != "" {
		cfg.Assistant.APIKey = v
	}
	if v := os.Getenv("AIOSFORGE_MODEL"); v != "" {
		cfg.Assistant.Model = v
	}
	if v := os.Getenv("AIOSFORGE_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("AIOSFORGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
