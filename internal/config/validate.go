package config

import (
	"errors"
	"fmt"
)

// past this the doubled backoff is measured in years
const maxRetriesLimit = 30

// Validate ensures the configuration is usable. The API key is checked when
// the client is built so that dry runs work without one.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateTranslate()
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must be set")
	}
	if c.API.Model == "" {
		return errors.New("api.model must be set")
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeout_seconds must be >= 0, got %d", c.API.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateTranslate() error {
	t := c.Translate
	if t.TargetLanguage == "" {
		return errors.New("translate.target_language must be set")
	}
	if t.DelaySeconds < 0 {
		return fmt.Errorf("translate.delay_seconds must be >= 0, got %g", t.DelaySeconds)
	}
	if t.CheckpointEvery < 0 {
		return fmt.Errorf("translate.checkpoint_every must be >= 0, got %d", t.CheckpointEvery)
	}
	if t.MaxRetries < 0 || t.MaxRetries > maxRetriesLimit {
		return fmt.Errorf("translate.max_retries must be between 0 and %d, got %d", maxRetriesLimit, t.MaxRetries)
	}
	if t.BackoffSeconds <= 0 {
		return fmt.Errorf("translate.backoff_seconds must be > 0, got %g", t.BackoffSeconds)
	}
	switch t.Mode {
	case "block", "line":
	default:
		return fmt.Errorf("translate.mode must be block or line, got %q", t.Mode)
	}
	return nil
}
