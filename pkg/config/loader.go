package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the complete orchestrator.yaml file structure.
type YAMLConfig struct {
	Limits             *LimitsConfig             `yaml:"limits"`
	ValidationTimeouts *ValidationTimeoutsConfig `yaml:"validation_timeouts"`
	LLM                *LLMConfig                `yaml:"llm"`
	GitHub             *GitHubConfig             `yaml:"github"`
	Monday             *MondayConfig             `yaml:"monday"`
	Slack              *SlackConfig              `yaml:"slack"`
	VectorStore        *VectorStoreConfig        `yaml:"vector_store"`
	Signing            *SigningConfig            `yaml:"signing"`
	Queue              *QueueConfig              `yaml:"queue"`
	Retention          *RetentionConfig          `yaml:"retention"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load orchestrator.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in defaults with user-defined overrides
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"max_debug_attempts", stats.MaxDebugAttempts,
		"max_human_debug_attempts", stats.MaxHumanDebugAttempts,
		"worker_count", stats.WorkerCount,
		"validation_timeout_command", stats.ValidationTimeoutCmd)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadOrchestratorYAML()
	if err != nil {
		return nil, NewLoadError("orchestrator.yaml", err)
	}

	limits := defaultLimits()
	if err := mergeLimits(&limits, yamlCfg.Limits); err != nil {
		return nil, fmt.Errorf("merging limits: %w", err)
	}

	validationTimeouts := defaultValidationTimeouts()
	if err := mergeValidationTimeouts(&validationTimeouts, yamlCfg.ValidationTimeouts); err != nil {
		return nil, fmt.Errorf("merging validation timeouts: %w", err)
	}

	llm := defaultLLM()
	if err := mergeLLM(&llm, yamlCfg.LLM); err != nil {
		return nil, fmt.Errorf("merging llm config: %w", err)
	}

	github := defaultGitHub()
	if err := mergeGitHub(&github, yamlCfg.GitHub); err != nil {
		return nil, fmt.Errorf("merging github config: %w", err)
	}

	monday := defaultMonday()
	if err := mergeMonday(&monday, yamlCfg.Monday); err != nil {
		return nil, fmt.Errorf("merging monday config: %w", err)
	}

	slackCfg := defaultSlack()
	if err := mergeSlack(&slackCfg, yamlCfg.Slack); err != nil {
		return nil, fmt.Errorf("merging slack config: %w", err)
	}

	vectorStore := defaultVectorStore()
	if err := mergeVectorStore(&vectorStore, yamlCfg.VectorStore); err != nil {
		return nil, fmt.Errorf("merging vector store config: %w", err)
	}

	signing := defaultSigning()
	if err := mergeSigning(&signing, yamlCfg.Signing); err != nil {
		return nil, fmt.Errorf("merging signing config: %w", err)
	}

	queue := defaultQueue()
	if err := mergeQueue(&queue, yamlCfg.Queue); err != nil {
		return nil, fmt.Errorf("merging queue config: %w", err)
	}

	retention := defaultRetention()
	if err := mergeRetention(&retention, yamlCfg.Retention); err != nil {
		return nil, fmt.Errorf("merging retention config: %w", err)
	}

	return &Config{
		configDir:          configDir,
		Limits:             limits,
		ValidationTimeouts: validationTimeouts,
		LLM:                llm,
		GitHub:             github,
		Monday:             monday,
		Slack:              slackCfg,
		VectorStore:        vectorStore,
		Signing:            signing,
		Queue:              queue,
		Retention:          retention,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Absence of the file is not fatal: every section has a
			// built-in default, applied by the merge step above.
			return nil
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadOrchestratorYAML() (*YAMLConfig, error) {
	var cfg YAMLConfig
	if err := l.loadYAML("orchestrator.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
