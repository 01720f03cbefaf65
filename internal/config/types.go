package config

import "time"

// Config is the root configuration for aiosforge.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Assistant AssistantConfig `yaml:"assistant,omitempty"`
	Store     StoreConfig     `yaml:"store,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Generator GeneratorConfig `yaml:"generator,omitempty"`
}

// ServerConfig controls the HTTP/WebSocket API server.
type ServerConfig struct {
	Port           int        `yaml:"port,omitempty"`
	Bind           string     `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string     `yaml:"customBindHost,omitempty"`
	Auth           ServerAuth `yaml:"auth,omitempty"`
	AllowedOrigins []string   `yaml:"allowedOrigins,omitempty"`
}

// ServerAuth configures API authentication. An empty token disables auth.
type ServerAuth struct {
	Token string `yaml:"token,omitempty"`
}

// AssistantConfig points at the OpenAI-compatible LLM gateway used for
// wizard chat and compliance review.
type AssistantConfig struct {
	BaseURL        string `yaml:"baseUrl,omitempty"`
	APIKey         string `yaml:"apiKey,omitempty"`
	Model          string `yaml:"model,omitempty"`
	ReviewModel    string `yaml:"reviewModel,omitempty"` // falls back to model
	MaxTokens      int    `yaml:"maxTokens,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// Enabled reports whether a gateway is configured.
func (a AssistantConfig) Enabled() bool {
	return a.BaseURL != ""
}

// Timeout is the per-request gateway timeout. Zero means the client default.
func (a AssistantConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// StoreConfig locates the SQLite database. An empty path means the default
// under the data directory.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// GeneratorConfig controls defaults applied when generating a package.
type GeneratorConfig struct {
	// ArchiveRoot is the folder name wrapping files inside exported ZIPs.
	// Empty means the project slug.
	ArchiveRoot string `yaml:"archiveRoot,omitempty"`
}
