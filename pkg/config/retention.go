package config

import "time"

// RetentionConfig controls data retention and cleanup behavior for
// completed Tasks/Runs. Nothing is ever hard-deleted by the core
// (spec.md §3 "records are retained for audit") — retention only
// governs the soft-delete (deleted_at) sweep.
type RetentionConfig struct {
	// TaskTTLDays is how many days to keep a completed Task's Runs
	// before soft-deleting them.
	TaskTTLDays int `yaml:"task_ttl_days"`

	// CleanupInterval is how often the retention sweep runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

func defaultRetention() RetentionConfig {
	return RetentionConfig{
		TaskTTLDays:     365,
		CleanupInterval: 12 * time.Hour,
	}
}
