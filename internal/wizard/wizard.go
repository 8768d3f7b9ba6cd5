package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"gopkg.in/yaml.v3"

	"github.com/joelklabo/codic-slack/internal/config"
	"github.com/joelklabo/codic-slack/internal/presets"
)

// Prompter abstracts survey for testability.
type Prompter interface {
	AskSelect(label string, options []string, def string) (string, error)
	AskInput(label, def string) (string, error)
	AskPassword(label string) (string, error)
	AskConfirm(label string, def bool) (bool, error)
}

// Run executes the interactive wizard and writes a config file. Progress
// notes go to out (os.Stdout when nil).
func Run(ctx context.Context, path string, p Prompter, out io.Writer) (string, error) {
	if p == nil {
		p = &surveyPrompter{}
	}
	if out == nil {
		out = os.Stdout
	}

	cfgPath := config.DefaultPath(path)
	if fileExists(cfgPath) {
		overwrite, err := p.AskConfirm(fmt.Sprintf("%s exists. Overwrite?", cfgPath), false)
		if err != nil {
			return "", err
		}
		if !overwrite {
			return "", fmt.Errorf("aborted: config exists at %s", cfgPath)
		}
	}

	reg := GetRegistry()
	names := make([]string, 0, len(reg.Presets))
	describe := make(map[string]string, len(reg.Presets))
	for _, o := range reg.Presets {
		names = append(names, o.Name)
		describe[o.Name] = o.Description
	}
	if sp, ok := p.(*surveyPrompter); ok {
		sp.describe = describe
	}
	def := reg.Default
	if !slices.Contains(names, def) && len(names) > 0 {
		def = names[0]
	}
	choice, err := p.AskSelect("Pick a deployment preset", names, def)
	if err != nil {
		return "", err
	}
	cfg := &config.Config{}
	if data, err := presets.Get(choice); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return "", fmt.Errorf("load preset %s: %w", choice, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Listen, err = p.AskInput("Listen address", cfg.Server.Listen); err != nil {
		return "", err
	}

	token, err := p.AskPassword("Codic API token (leave blank to use $" + config.EnvCodicToken + ")")
	if err != nil {
		return "", err
	}
	token = strings.TrimSpace(token)
	if token == "" && os.Getenv(config.EnvCodicToken) == "" {
		return "", errors.New("a Codic API token is required")
	}
	cfg.Codic.Token = token

	secret, err := p.AskPassword("Slack signing secret (blank disables verification)")
	if err != nil {
		return "", err
	}
	cfg.Server.SigningSecret = strings.TrimSpace(secret)
	if cfg.Server.SigningSecret == "" && choice == "slack-app" && os.Getenv(config.EnvSigningSecret) == "" {
		return "", errors.New("the slack-app preset needs a signing secret")
	}

	if cfg.Registry.Enable, err = p.AskConfirm("Enable the team webhook registry?", cfg.Registry.Enable); err != nil {
		return "", err
	}
	if cfg.Registry.Enable {
		def := cfg.Registry.Path
		if def == "" {
			def = filepath.Join(filepath.Dir(cfgPath), "teams.db")
		}
		if cfg.Registry.Path, err = p.AskInput("Registry database path", def); err != nil {
			return "", err
		}
	}

	dryRun, err := p.AskConfirm("Dry-run only (preview config without writing)?", false)
	if err != nil {
		return "", err
	}
	if dryRun {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("marshal config: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Dry run: config NOT written. Target path would be %s\n%s", cfgPath, data)
		return cfgPath, nil
	}

	if err := writeConfig(cfgPath, cfg); err != nil {
		return "", err
	}
	_, _ = fmt.Fprintf(out, "Wrote %s\n", cfgPath)
	return cfgPath, nil
}

// writeConfig writes cfg next to a temp file first so an interrupted run
// never leaves a truncated config with secrets in it.
func writeConfig(path string, cfg *config.Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("make config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(append([]byte(header), data...)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

const header = "# Written by codic-slack init. See `codic-slack init --example` for every key.\n"

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// surveyPrompter asks on the terminal.
type surveyPrompter struct {
	describe map[string]string
}

func (sp surveyPrompter) AskSelect(label string, options []string, def string) (string, error) {
	sel := def
	prompt := &survey.Select{Message: label, Options: options, Default: def}
	if len(sp.describe) > 0 {
		prompt.Description = func(value string, _ int) string { return sp.describe[value] }
	}
	err := survey.AskOne(prompt, &sel)
	return sel, err
}

func (surveyPrompter) AskInput(label, def string) (string, error) {
	ans := def
	err := survey.AskOne(&survey.Input{Message: label, Default: def}, &ans)
	return ans, err
}

func (surveyPrompter) AskPassword(label string) (string, error) {
	var ans string
	err := survey.AskOne(&survey.Password{Message: label}, &ans)
	return ans, err
}

func (surveyPrompter) AskConfirm(label string, def bool) (bool, error) {
	ans := def
	err := survey.AskOne(&survey.Confirm{Message: label, Default: def}, &ans)
	return ans, err
}

// StubPrompter answers from queues; an empty queue yields the default.
type StubPrompter struct {
	Selects   []string
	Inputs    []string
	Passwords []string
	Confirms  []bool
}

func pop[T any](q *[]T, def T) T {
	if len(*q) == 0 {
		return def
	}
	v := (*q)[0]
	*q = (*q)[1:]
	return v
}

func (s *StubPrompter) AskSelect(_ string, _ []string, def string) (string, error) {
	return pop(&s.Selects, def), nil
}

func (s *StubPrompter) AskInput(_, def string) (string, error) {
	return pop(&s.Inputs, def), nil
}

func (s *StubPrompter) AskPassword(string) (string, error) {
	return pop(&s.Passwords, ""), nil
}

func (s *StubPrompter) AskConfirm(_ string, def bool) (bool, error) {
	return pop(&s.Confirms, def), nil
}
