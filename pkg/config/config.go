package config

// Config is the umbrella configuration object read once at process
// startup (config.Initialize) and treated as immutable thereafter. It
// is the single permitted Config singleton named in spec.md §9 Design
// Notes ("the Config singleton, initialized once from environment,
// immutable thereafter").
type Config struct {
	configDir string

	Limits             LimitsConfig
	ValidationTimeouts ValidationTimeoutsConfig
	LLM                LLMConfig
	GitHub             GitHubConfig
	Monday             MondayConfig
	Slack              SlackConfig
	VectorStore        VectorStoreConfig
	Signing            SigningConfig
	Queue              QueueConfig
	Retention          RetentionConfig
}

// ConfigDir returns the configuration directory path the config was
// loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Stats summarizes the loaded configuration for the health endpoint.
type Stats struct {
	MaxDebugAttempts      int
	MaxHumanDebugAttempts int
	WorkerCount           int
	ValidationTimeoutCmd  string
}

// Stats returns a summary suitable for the ops health endpoint.
func (c *Config) Stats() Stats {
	return Stats{
		MaxDebugAttempts:      c.Limits.MaxDebugAttempts,
		MaxHumanDebugAttempts: c.Limits.MaxHumanDebugAttempts,
		WorkerCount:           c.Queue.WorkerCount,
		ValidationTimeoutCmd:  c.ValidationTimeouts.Command.String(),
	}
}
