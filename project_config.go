package babylon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StateDir is the per-project directory holding config, snapshot and workbook.
const StateDir = ".babylon"

// ProjectConfig holds project-scoped configuration stored in .babylon/config.yaml.
type ProjectConfig struct {
	Languages     []Language       `yaml:"languages"`
	Patterns      []string         `yaml:"patterns"`
	Workbook      string           `yaml:"workbook"`
	Snapshot      string           `yaml:"snapshot"`
	CombineSheets bool             `yaml:"combine_sheets,omitempty"`
	IncludeEmpty  bool             `yaml:"include_empty,omitempty"`
	Workers       int              `yaml:"workers,omitempty"`
	Notify        NotifyConfig     `yaml:"notify,omitempty"`
	Translator    TranslatorConfig `yaml:"translator,omitempty"`
}

// TranslatorConfig enables pre-translation of blank cells on export.
type TranslatorConfig struct {
	Cmd string `yaml:"cmd,omitempty"`
	// Source is the language of the primary files, passed as {source}.
	Source Language `yaml:"source,omitempty"`
}

// NotifyConfig selects the channels told about finished exports. Tokens
// come from the environment, see LoadSecrets.
type NotifyConfig struct {
	Slack    bool   `yaml:"slack,omitempty"`
	Discord  bool   `yaml:"discord,omitempty"`
	Telegram bool   `yaml:"telegram,omitempty"`
	Desktop  bool   `yaml:"desktop,omitempty"`
	Cmd      string `yaml:"cmd,omitempty"`
}

// DefaultProjectConfig returns the configuration written by "babylon init".
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Patterns: []string{"**/*.properties"},
		Workbook: filepath.ToSlash(filepath.Join(StateDir, "translations.xlsx")),
		Snapshot: filepath.ToSlash(filepath.Join(StateDir, "snapshot.db")),
	}
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, StateDir, "config.yaml")
}

// LoadProjectConfig reads the project config from .babylon/config.yaml.
// Returns the default config (no error) if the file does not exist.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	return LoadProjectConfigFile(ProjectConfigPath(dir))
}

// LoadProjectConfigFile reads the project config from path, filling unset
// fields with defaults.
func LoadProjectConfigFile(path string) (*ProjectConfig, error) {
	cfg := DefaultProjectConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def := DefaultProjectConfig()
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = def.Patterns
	}
	if cfg.Workbook == "" {
		cfg.Workbook = def.Workbook
	}
	if cfg.Snapshot == "" {
		cfg.Snapshot = def.Snapshot
	}
	return cfg, nil
}

// SaveProjectConfig writes the project config to .babylon/config.yaml.
func SaveProjectConfig(dir string, cfg *ProjectConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, StateDir), 0755); err != nil {
		return err
	}
	return os.WriteFile(ProjectConfigPath(dir), data, 0644)
}

// Validate reports configuration that cannot drive an export.
func (c *ProjectConfig) Validate() error {
	var errs []error
	if len(c.Languages) == 0 {
		errs = append(errs, errors.New("languages: at least one target language is required"))
	}
	seen := make(map[Language]bool, len(c.Languages))
	for _, l := range c.Languages {
		switch {
		case l == "":
			errs = append(errs, errors.New("languages: empty language"))
		case seen[l]:
			errs = append(errs, fmt.Errorf("languages: %q listed twice", l))
		}
		seen[l] = true
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers: must not be negative, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

// Resolve returns p relative to dir unless it is absolute.
func Resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
