package config

import (
	"fmt"
	"net"
	"net/url"
)

var (
	logLevels  = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}
	logFormats = map[string]struct{}{"text": {}, "json": {}}
)

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return fmt.Errorf("server.listen %q: %w", c.Server.Listen, err)
	}
	u, err := url.Parse(c.Codic.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("codic.base_url %q must be an http(s) url", c.Codic.BaseURL)
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	checks := []struct {
		name  string
		value int
	}{
		{"server.read_header_timeout_seconds", c.Server.ReadHeaderTimeoutSeconds},
		{"codic.timeout_seconds", c.Codic.TimeoutSeconds},
		{"slack.timeout_seconds", c.Slack.TimeoutSeconds},
		{"bridge.job_timeout_seconds", c.Bridge.JobTimeoutSeconds},
	}
	for _, ch := range checks {
		if ch.value < 0 {
			return fmt.Errorf("%s must not be negative", ch.name)
		}
	}
	if c.Codic.RatePerSecond < 0 {
		return fmt.Errorf("codic.rate_per_second must not be negative")
	}
	if c.Codic.Burst < 0 {
		return fmt.Errorf("codic.burst must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := logLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level %q: want debug, info, warn or error", c.Logging.Level)
	}
	if _, ok := logFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format %q: want text or json", c.Logging.Format)
	}
	return nil
}
