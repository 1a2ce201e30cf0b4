package config

import "dario.cat/mergo"

// mergeLimits overlays user-defined limits onto the built-in defaults.
// Zero-value user fields are left at their built-in value.
func mergeLimits(dst *LimitsConfig, src *LimitsConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeValidationTimeouts(dst *ValidationTimeoutsConfig, src *ValidationTimeoutsConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeLLM(dst *LLMConfig, src *LLMConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeGitHub(dst *GitHubConfig, src *GitHubConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeMonday(dst *MondayConfig, src *MondayConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeSlack(dst *SlackConfig, src *SlackConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeVectorStore(dst *VectorStoreConfig, src *VectorStoreConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeSigning(dst *SigningConfig, src *SigningConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeQueue(dst *QueueConfig, src *QueueConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeRetention(dst *RetentionConfig, src *RetentionConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}
