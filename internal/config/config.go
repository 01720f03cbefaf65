package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort           = 18790
	DefaultModel          = "gpt-4o-mini"
	DefaultMaxTokens      = 2048
	DefaultTimeoutSeconds = 120
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: DefaultPort,
			Bind: "loopback",
		},
		Assistant: AssistantConfig{
			Model:          DefaultModel,
			MaxTokens:      DefaultMaxTokens,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
