package config

import "time"

// the functions below return the built-in configuration applied when the
// YAML config directory omits a section. User YAML always overrides these
// via mergo (see merge.go).

func defaultLimits() LimitsConfig {
	return LimitsConfig{
		MaxDebugAttempts:      2,
		MaxHumanDebugAttempts: 2,
		MaxNodesSafetyLimit:   15,
		MaxRetryAttempts:      2,
		GlobalTimeout:         1 * time.Hour,
		NodeTimeout:           10 * time.Minute,
	}
}

func defaultValidationTimeouts() ValidationTimeoutsConfig {
	return ValidationTimeoutsConfig{
		Command:       24 * time.Hour,
		Question:      2 * time.Hour,
		ReminderDelay: 4 * time.Hour,
	}
}

func defaultLLM() LLMConfig {
	return LLMConfig{
		PrimaryProvider:    "anthropic",
		SecondaryProvider:  "openai",
		AnthropicAPIKeyEnv: "ANTHROPIC_API_KEY",
		AnthropicModel:     "claude-sonnet-4-20250514",
		OpenAIAPIKeyEnv:    "OPENAI_API_KEY",
		OpenAIModel:        "gpt-4o",
		MaxTokens:          4096,
	}
}

func defaultGitHub() GitHubConfig {
	return GitHubConfig{
		TokenEnv:          "GITHUB_TOKEN",
		DefaultBaseBranch: "main",
		MergeMethod:       "squash",
	}
}

func defaultMonday() MondayConfig {
	return MondayConfig{
		APITokenEnv:    "MONDAY_API_TOKEN",
		APIURL:         "https://api.monday.com/v2",
		StatusColumnID: "status",
	}
}

func defaultSlack() SlackConfig {
	return SlackConfig{
		TokenEnv: "SLACK_BOT_TOKEN",
	}
}

func defaultVectorStore() VectorStoreConfig {
	return VectorStoreConfig{
		Enabled:    false,
		URLEnv:     "QDRANT_URL",
		Collection: "vydata-mentions",
	}
}

func defaultSigning() SigningConfig {
	return SigningConfig{
		SecretEnv: "MONDAY_SIGNING_SECRET",
	}
}
