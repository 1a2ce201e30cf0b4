package config

import "time"

// LimitsConfig bounds the workflow graph's execution: debug loops, node
// dispatches, and retries. See spec I-5 and I-6.
type LimitsConfig struct {
	// MaxDebugAttempts bounds the run-tests/debug-code loop (I-6).
	MaxDebugAttempts int `yaml:"max_debug_attempts"`

	// MaxHumanDebugAttempts bounds the post-validation openai-debug loop (I-6).
	MaxHumanDebugAttempts int `yaml:"max_human_debug_attempts"`

	// MaxNodesSafetyLimit bounds total node dispatches per run (I-5).
	MaxNodesSafetyLimit int `yaml:"max_nodes_safety_limit"`

	// MaxRetryAttempts is the per-node retry count on transient failure.
	MaxRetryAttempts int `yaml:"max_retry_attempts"`

	// GlobalTimeout bounds an entire run.
	GlobalTimeout time.Duration `yaml:"global_timeout"`

	// NodeTimeout bounds a single node execution.
	NodeTimeout time.Duration `yaml:"node_timeout"`
}

// ValidationTimeoutsConfig holds the two distinct human-validation
// final-timeouts named in spec.md §5.
type ValidationTimeoutsConfig struct {
	// Command is used for command-intent validations and reactivations.
	Command time.Duration `yaml:"command"`

	// Question is used for question-intent interactions (no reminder scheduled).
	Question time.Duration `yaml:"question"`

	// ReminderDelay is how long to wait before posting the Slack reminder.
	ReminderDelay time.Duration `yaml:"reminder_delay"`
}

// LLMConfig selects the primary/secondary LLM providers used by the
// fallback completer (spec.md §6 "provider fallback").
type LLMConfig struct {
	PrimaryProvider   string `yaml:"primary_provider"`
	SecondaryProvider string `yaml:"secondary_provider"`

	AnthropicAPIKeyEnv string `yaml:"anthropic_api_key_env"`
	AnthropicModel     string `yaml:"anthropic_model"`

	OpenAIAPIKeyEnv string `yaml:"openai_api_key_env"`
	OpenAIModel     string `yaml:"openai_model"`

	MaxTokens int `yaml:"max_tokens"`
}

// GitHubConfig configures the GitHub-like collaborator.
type GitHubConfig struct {
	TokenEnv            string `yaml:"token_env"`
	DefaultBaseBranch   string `yaml:"repo_default_base_branch"`
	MergeMethod         string `yaml:"merge_method"` // squash, merge, rebase
}

// MondayConfig configures the Monday-like collaborator.
type MondayConfig struct {
	APITokenEnv             string `yaml:"api_token_env"`
	APIURL                  string `yaml:"api_url"`
	RepositoryURLColumnID   string `yaml:"repository_url_column_id"`
	StatusColumnID          string `yaml:"status_column_id"`
}

// SlackConfig configures the Slack-like collaborator.
type SlackConfig struct {
	TokenEnv     string `yaml:"token_env"`
	Channel      string `yaml:"channel"`
	DashboardURL string `yaml:"dashboard_url"`
}

// VectorStoreConfig configures the best-effort RAG vector store.
type VectorStoreConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URLEnv     string `yaml:"url_env"`
	Collection string `yaml:"collection"`
}

// SigningConfig holds the inbound webhook signing secret. Webhook HTTP
// parsing itself is out of scope (spec.md §6); this is included for
// completeness as the envelope-acceptance boundary may need it.
type SigningConfig struct {
	SecretEnv string `yaml:"secret_env"`
}
