package check

import (
	"path/filepath"
	"strings"

	"github.com/joelklabo/codic-slack/internal/config"
)

// ForConfig lists what a bridge running with cfg depends on. The listen
// check is skipped when serving is not about to happen.
func ForConfig(cfg *config.Config, includeListen bool) []DepInput {
	deps := []DepInput{
		{Name: config.EnvCodicToken, Type: "env", Optional: strings.TrimSpace(cfg.Codic.Token) != "", Hint: "codic.token in the config file also works"},
		{Name: cfg.Codic.BaseURL, Type: "url", Optional: true, Hint: "commands fail until Codic answers"},
	}
	if includeListen {
		deps = append(deps, DepInput{Name: cfg.Server.Listen, Type: "listen", Hint: "server.listen must be free"})
	}
	if cfg.Server.SigningSecret == "" {
		deps = append(deps, DepInput{Name: config.EnvSigningSecret, Type: "env", Optional: true, Hint: "requests will not be verified"})
	}
	if cfg.Registry.Enable {
		deps = append(deps, DepInput{Name: filepath.Dir(cfg.Registry.Path), Type: "dirwrite", Hint: "registry.path directory must be writable"})
	}
	if cfg.Logging.File != "" {
		deps = append(deps, DepInput{Name: filepath.Dir(cfg.Logging.File), Type: "dirwrite", Hint: "logging.file directory must be writable"})
	}
	return deps
}
