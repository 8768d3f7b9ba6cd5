package wizard

import "github.com/joelklabo/codic-slack/internal/presets"

// PresetOption is a starting point offered by the wizard.
type PresetOption struct {
	Name        string
	Description string
}

// Registry holds available options for the wizard.
type Registry struct {
	Presets []PresetOption
	Default string
}

var defaultRegistry = builtinRegistry()

func builtinRegistry() Registry {
	desc := presets.List()
	reg := Registry{Default: "slack-app"}
	for _, name := range presets.Names() {
		reg.Presets = append(reg.Presets, PresetOption{Name: name, Description: desc[name]})
	}
	return reg
}

// GetRegistry returns the default registry (copy).
func GetRegistry() Registry {
	return defaultRegistry
}

// SetRegistry overrides the global registry (primarily for tests/extensibility).
// Callers should restore the previous value after use to avoid leaking state across tests.
func SetRegistry(r Registry) {
	defaultRegistry = r
}
