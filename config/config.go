// Package config defines the recognized ModelMesh configuration options
// with their defaults and YAML file loading. All state configured here is
// in-memory only; nothing persists across restarts.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/modelmesh/model"
)

// Config is the full recognized option set. Zero values fall back to the
// documented defaults at construction time, so a partial YAML file is fine.
type Config struct {
	// MinQualityThreshold is the reflection early-exit score, in [0, 10].
	MinQualityThreshold float64 `yaml:"min_quality_threshold"`

	// MaxReflectionIterations caps reflection rounds.
	MaxReflectionIterations int `yaml:"max_reflection_iterations"`

	// MaxModelAttempts caps distinct models per request.
	MaxModelAttempts int `yaml:"max_model_attempts"`

	// MaxRetriesPerModel caps retries after the first attempt on one model.
	MaxRetriesPerModel int `yaml:"max_retries_per_model"`

	// BlacklistDurationSeconds is the quota suppression window.
	BlacklistDurationSeconds int `yaml:"blacklist_duration_seconds"`

	// AgentCacheTimeoutSeconds bounds agent topology reuse.
	AgentCacheTimeoutSeconds int `yaml:"agent_cache_timeout_seconds"`

	// ContextDisableWindowSeconds suppresses retrieval after a failure.
	ContextDisableWindowSeconds int `yaml:"context_disable_window_seconds"`

	// ComplexityDelegationThreshold routes requests at or above this score
	// to the delegated pipeline.
	ComplexityDelegationThreshold int `yaml:"complexity_delegation_threshold"`

	// RetrievalTimeoutSeconds bounds each knowledge retrieval call.
	RetrievalTimeoutSeconds int `yaml:"retrieval_timeout_seconds"`

	// InvokeTimeoutSeconds bounds each model invocation.
	InvokeTimeoutSeconds int `yaml:"invoke_timeout_seconds"`

	// BackoffCapSeconds bounds the exponential retry backoff.
	BackoffCapSeconds int `yaml:"backoff_cap_seconds"`

	// ColdStartWaitSeconds is the single wait when the first selection
	// finds no candidate.
	ColdStartWaitSeconds int `yaml:"cold_start_wait_seconds"`

	// IntelligenceThreshold separates high-intelligence candidates for
	// intelligence-priority selection.
	IntelligenceThreshold int `yaml:"intelligence_threshold"`

	// ClassificationTablePath optionally points at an external error
	// classification table; empty uses the embedded one.
	ClassificationTablePath string `yaml:"classification_table"`

	// Models is the static model catalog.
	Models []model.Descriptor `yaml:"models"`
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		MinQualityThreshold:           8.0,
		MaxReflectionIterations:       3,
		MaxModelAttempts:              3,
		MaxRetriesPerModel:            2,
		BlacklistDurationSeconds:      3600,
		AgentCacheTimeoutSeconds:      600,
		ContextDisableWindowSeconds:   300,
		ComplexityDelegationThreshold: 3,
		RetrievalTimeoutSeconds:       4,
		InvokeTimeoutSeconds:          120,
		BackoffCapSeconds:             8,
		ColdStartWaitSeconds:          30,
		IntelligenceThreshold:         80,
	}
}

// Load reads a YAML file and merges it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects option values outside their documented ranges.
func (c Config) Validate() error {
	if c.MinQualityThreshold < 0 || c.MinQualityThreshold > 10 {
		return fmt.Errorf("min_quality_threshold %v outside [0, 10]", c.MinQualityThreshold)
	}
	if c.MaxReflectionIterations < 1 {
		return fmt.Errorf("max_reflection_iterations must be >= 1, got %d", c.MaxReflectionIterations)
	}
	if c.MaxModelAttempts < 1 {
		return fmt.Errorf("max_model_attempts must be >= 1, got %d", c.MaxModelAttempts)
	}
	if c.MaxRetriesPerModel < 0 {
		return fmt.Errorf("max_retries_per_model must be >= 0, got %d", c.MaxRetriesPerModel)
	}
	return nil
}

// BlacklistDuration returns the suppression window as a Duration.
func (c Config) BlacklistDuration() time.Duration {
	return time.Duration(c.BlacklistDurationSeconds) * time.Second
}

// AgentCacheTTL returns the topology cache TTL as a Duration.
func (c Config) AgentCacheTTL() time.Duration {
	return time.Duration(c.AgentCacheTimeoutSeconds) * time.Second
}

// ContextDisableWindow returns the retrieval breaker window as a Duration.
func (c Config) ContextDisableWindow() time.Duration {
	return time.Duration(c.ContextDisableWindowSeconds) * time.Second
}

// RetrievalTimeout returns the per-call retrieval timeout as a Duration.
func (c Config) RetrievalTimeout() time.Duration {
	return time.Duration(c.RetrievalTimeoutSeconds) * time.Second
}

// InvokeTimeout returns the per-call invocation timeout as a Duration.
func (c Config) InvokeTimeout() time.Duration {
	return time.Duration(c.InvokeTimeoutSeconds) * time.Second
}

// BackoffCap returns the retry backoff bound as a Duration.
func (c Config) BackoffCap() time.Duration {
	return time.Duration(c.BackoffCapSeconds) * time.Second
}

// ColdStartWait returns the cold-start selection wait as a Duration.
func (c Config) ColdStartWait() time.Duration {
	return time.Duration(c.ColdStartWaitSeconds) * time.Second
}
