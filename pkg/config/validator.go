package config

import (
	"fmt"
	"os"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at first error).
func (v *Validator) ValidateAll() error {
	if err := v.validateLimits(); err != nil {
		return fmt.Errorf("limits validation failed: %w", err)
	}
	if err := v.validateValidationTimeouts(); err != nil {
		return fmt.Errorf("validation_timeouts validation failed: %w", err)
	}
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateRetention(); err != nil {
		return fmt.Errorf("retention validation failed: %w", err)
	}
	if err := v.validateLLM(); err != nil {
		return fmt.Errorf("llm validation failed: %w", err)
	}
	if err := v.validateGitHub(); err != nil {
		return fmt.Errorf("github validation failed: %w", err)
	}
	if err := v.validateMonday(); err != nil {
		return fmt.Errorf("monday validation failed: %w", err)
	}
	if err := v.validateSlack(); err != nil {
		return fmt.Errorf("slack validation failed: %w", err)
	}
	if err := v.validateVectorStore(); err != nil {
		return fmt.Errorf("vector_store validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateLimits() error {
	l := v.cfg.Limits

	if l.MaxDebugAttempts < 0 {
		return NewValidationError("limits", "max_debug_attempts", fmt.Errorf("must be non-negative, got %d", l.MaxDebugAttempts))
	}
	if l.MaxHumanDebugAttempts < 0 {
		return NewValidationError("limits", "max_human_debug_attempts", fmt.Errorf("must be non-negative, got %d", l.MaxHumanDebugAttempts))
	}
	if l.MaxNodesSafetyLimit < 1 {
		return NewValidationError("limits", "max_nodes_safety_limit", fmt.Errorf("must be at least 1, got %d", l.MaxNodesSafetyLimit))
	}
	if l.MaxRetryAttempts < 0 {
		return NewValidationError("limits", "max_retry_attempts", fmt.Errorf("must be non-negative, got %d", l.MaxRetryAttempts))
	}
	if l.GlobalTimeout <= 0 {
		return NewValidationError("limits", "global_timeout", fmt.Errorf("must be positive, got %v", l.GlobalTimeout))
	}
	if l.NodeTimeout <= 0 {
		return NewValidationError("limits", "node_timeout", fmt.Errorf("must be positive, got %v", l.NodeTimeout))
	}
	if l.NodeTimeout >= l.GlobalTimeout {
		return NewValidationError("limits", "node_timeout", fmt.Errorf("must be less than global_timeout, got node=%v global=%v", l.NodeTimeout, l.GlobalTimeout))
	}

	return nil
}

func (v *Validator) validateValidationTimeouts() error {
	vt := v.cfg.ValidationTimeouts

	if vt.Command <= 0 {
		return NewValidationError("validation_timeouts", "command", fmt.Errorf("must be positive, got %v", vt.Command))
	}
	if vt.Question <= 0 {
		return NewValidationError("validation_timeouts", "question", fmt.Errorf("must be positive, got %v", vt.Question))
	}
	if vt.ReminderDelay <= 0 {
		return NewValidationError("validation_timeouts", "reminder_delay", fmt.Errorf("must be positive, got %v", vt.ReminderDelay))
	}
	if vt.ReminderDelay >= vt.Command {
		return NewValidationError("validation_timeouts", "reminder_delay", fmt.Errorf("must be less than command timeout, got reminder=%v command=%v", vt.ReminderDelay, vt.Command))
	}

	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue

	if q.WorkerCount < 1 || q.WorkerCount > 50 {
		return NewValidationError("queue", "worker_count", fmt.Errorf("must be between 1 and 50, got %d", q.WorkerCount))
	}
	if q.MaxConcurrentRuns < 1 {
		return NewValidationError("queue", "max_concurrent_runs", fmt.Errorf("must be at least 1, got %d", q.MaxConcurrentRuns))
	}
	if q.PollInterval <= 0 {
		return NewValidationError("queue", "poll_interval", fmt.Errorf("must be positive, got %v", q.PollInterval))
	}
	if q.PollIntervalJitter < 0 {
		return NewValidationError("queue", "poll_interval_jitter", fmt.Errorf("must be non-negative, got %v", q.PollIntervalJitter))
	}
	if q.PollIntervalJitter >= q.PollInterval {
		return NewValidationError("queue", "poll_interval_jitter", fmt.Errorf("must be less than poll_interval, got jitter=%v interval=%v", q.PollIntervalJitter, q.PollInterval))
	}
	if q.GracefulShutdownTimeout <= 0 {
		return NewValidationError("queue", "graceful_shutdown_timeout", fmt.Errorf("must be positive, got %v", q.GracefulShutdownTimeout))
	}
	if q.OrphanDetectionInterval <= 0 {
		return NewValidationError("queue", "orphan_detection_interval", fmt.Errorf("must be positive, got %v", q.OrphanDetectionInterval))
	}
	if q.OrphanThreshold <= 0 {
		return NewValidationError("queue", "orphan_threshold", fmt.Errorf("must be positive, got %v", q.OrphanThreshold))
	}
	if q.OrphanDetectionInterval >= q.OrphanThreshold {
		return NewValidationError("queue", "orphan_detection_interval", fmt.Errorf("must be less than orphan_threshold to avoid false-positive orphan detection, got interval=%v threshold=%v", q.OrphanDetectionInterval, q.OrphanThreshold))
	}

	return nil
}

func (v *Validator) validateRetention() error {
	r := v.cfg.Retention

	if r.TaskTTLDays < 1 {
		return NewValidationError("retention", "task_ttl_days", fmt.Errorf("must be at least 1, got %d", r.TaskTTLDays))
	}
	if r.CleanupInterval <= 0 {
		return NewValidationError("retention", "cleanup_interval", fmt.Errorf("must be positive, got %v", r.CleanupInterval))
	}

	return nil
}

func (v *Validator) validateLLM() error {
	l := v.cfg.LLM

	if l.PrimaryProvider == "" {
		return NewValidationError("llm", "primary_provider", fmt.Errorf("required"))
	}
	if l.PrimaryProvider != "anthropic" && l.PrimaryProvider != "openai" {
		return NewValidationError("llm", "primary_provider", fmt.Errorf("must be 'anthropic' or 'openai', got %q", l.PrimaryProvider))
	}
	if l.SecondaryProvider != "" && l.SecondaryProvider != "anthropic" && l.SecondaryProvider != "openai" {
		return NewValidationError("llm", "secondary_provider", fmt.Errorf("must be 'anthropic' or 'openai', got %q", l.SecondaryProvider))
	}
	if l.SecondaryProvider == l.PrimaryProvider {
		return NewValidationError("llm", "secondary_provider", fmt.Errorf("must differ from primary_provider"))
	}
	if l.MaxTokens < 1 {
		return NewValidationError("llm", "max_tokens", fmt.Errorf("must be at least 1, got %d", l.MaxTokens))
	}

	// The API key env vars aren't checked for presence here: a missing key
	// only matters once that provider is actually dialed, and requiring it
	// at startup would break local dry-run and test configurations.
	return nil
}

func (v *Validator) validateGitHub() error {
	g := v.cfg.GitHub

	switch g.MergeMethod {
	case "squash", "merge", "rebase":
	default:
		return NewValidationError("github", "merge_method", fmt.Errorf("must be one of squash, merge, rebase, got %q", g.MergeMethod))
	}
	if g.DefaultBaseBranch == "" {
		return NewValidationError("github", "repo_default_base_branch", fmt.Errorf("required"))
	}

	return nil
}

func (v *Validator) validateMonday() error {
	m := v.cfg.Monday

	if m.APIURL == "" {
		return NewValidationError("monday", "api_url", fmt.Errorf("required"))
	}

	return nil
}

func (v *Validator) validateSlack() error {
	s := v.cfg.Slack

	if s.Channel == "" {
		return NewValidationError("slack", "channel", fmt.Errorf("required"))
	}
	if s.TokenEnv == "" {
		return NewValidationError("slack", "token_env", fmt.Errorf("required"))
	}

	return nil
}

func (v *Validator) validateVectorStore() error {
	vs := v.cfg.VectorStore
	if !vs.Enabled {
		return nil
	}

	if vs.URLEnv == "" {
		return NewValidationError("vector_store", "url_env", fmt.Errorf("required when enabled"))
	}
	if value := os.Getenv(vs.URLEnv); value == "" {
		return NewValidationError("vector_store", "url_env", fmt.Errorf("environment variable %s is not set", vs.URLEnv))
	}
	if vs.Collection == "" {
		return NewValidationError("vector_store", "collection", fmt.Errorf("required when enabled"))
	}

	return nil
}
