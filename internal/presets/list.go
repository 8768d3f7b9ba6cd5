// Package presets ships starting configs for common deployments.
package presets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// List returns preset names and descriptions.
func List() map[string]string {
	return map[string]string{
		"local":          "Loopback listener, debug logs, no signature checks",
		"slack-app":      "Public listener, signed requests, JSON logs and metrics",
		"legacy-webhook": "Team registry for workspaces using incoming webhooks",
	}
}

// Names returns preset names in a stable order.
func Names() []string {
	names := make([]string, 0, len(List()))
	for n := range List() {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the raw YAML for a preset, or an error if unknown.
func Get(name string) ([]byte, error) {
	if data, ok := loadOverride(name); ok {
		return data, nil
	}
	switch name {
	case "local":
		return Local, nil
	case "slack-app":
		return SlackApp, nil
	case "legacy-webhook":
		return LegacyWebhook, nil
	default:
		return nil, fmt.Errorf("unknown preset %s", name)
	}
}

// loadOverride returns user/project preset overrides if present.
func loadOverride(name string) ([]byte, bool) {
	for _, path := range overridePaths(name) {
		if data, err := os.ReadFile(path); err == nil {
			return data, true
		}
	}
	return nil, false
}

func overridePaths(name string) []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "codic-slack", "presets", name+".yaml"))
	}
	paths = append(paths, filepath.Join("presets", name+".yaml"))
	return paths
}
