package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validatePlayer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.RequestsPerMin <= 0 {
		return errors.New("server.requests_per_minute must be positive")
	}
	if c.Server.ShutdownSeconds <= 0 {
		return errors.New("server.shutdown_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if c.Player.CommitTimeoutSeconds <= 0 {
		return errors.New("player.commit_timeout_seconds must be positive")
	}
	if c.Player.CommitRetries < 0 {
		return errors.New("player.commit_retries must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
