package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Server validation
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}
	if cfg.Server.Bind == "custom" && cfg.Server.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "server.customBindHost",
			Message: "required when bind is custom",
		})
	}
	if cfg.Server.Bind != "" && cfg.Server.Bind != "loopback" && cfg.Server.Auth.Token == "" {
		issues = append(issues, ValidationIssue{
			Path:    "server.auth.token",
			Message: "a token is required when listening beyond loopback",
		})
	}

	// Assistant validation
	if cfg.Assistant.BaseURL != "" {
		u, err := url.Parse(cfg.Assistant.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    "assistant.baseUrl",
				Message: fmt.Sprintf("must be an http(s) URL, got %q", cfg.Assistant.BaseURL),
			})
		}
	}
	if cfg.Assistant.MaxTokens < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "assistant.maxTokens",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Assistant.MaxTokens),
		})
	}
	if cfg.Assistant.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "assistant.timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Assistant.TimeoutSeconds),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
