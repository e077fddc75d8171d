package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. A validation failure here is
// fatal at startup, before any worker begins.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateClassification(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		return errors.New("paths.input_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Ingest.MoveProcessed && strings.TrimSpace(c.Paths.ProcessedDir) == "" {
		return errors.New("paths.processed_dir must be set when ingest.move_processed is enabled")
	}
	return nil
}

func (c *Config) validateDetection() error {
	switch c.Detection.DefaultStrategy {
	case "ocr", "text":
		return nil
	default:
		return fmt.Errorf("detection.default_strategy must be %q or %q, got %q", "ocr", "text", c.Detection.DefaultStrategy)
	}
}

func (c *Config) validateClassification() error {
	for category, keywords := range c.Classification.Rules {
		if strings.TrimSpace(category) == "" {
			return errors.New("classification.rules contains an empty category name")
		}
		if len(keywords) == 0 {
			return fmt.Errorf("classification.rules.%s has no keywords", category)
		}
	}
	return nil
}

func (c *Config) validateSearch() error {
	if !c.Search.Enabled {
		return nil
	}
	if !strings.HasPrefix(c.Search.URL, "http://") && !strings.HasPrefix(c.Search.URL, "https://") {
		return fmt.Errorf("search.url must be an http(s) URL, got %q", c.Search.URL)
	}
	if strings.TrimSpace(c.Search.Index) == "" {
		return errors.New("search.index must be set when search is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}
