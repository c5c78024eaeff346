package warden

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const ConfigFileName = "warden.toml"

type Preferences struct {
	AutoCopy        bool   `toml:"auto_copy"`
	AutoCommit      bool   `toml:"auto_commit"`
	CommitPrefix    string `toml:"commit_prefix"`
	BackupRetention int    `toml:"backup_retention"`
}

// Config is the decoded warden.toml. Commands are normalized to lists:
// check = "go vet ./..." and check = ["go vet ./..."] are the same.
type Config struct {
	Commands    map[string][]string
	Preferences Preferences
}

type rawConfig struct {
	Commands    map[string]any `toml:"commands"`
	Preferences Preferences    `toml:"preferences"`
}

func DefaultConfig() *Config {
	return &Config{
		Commands: map[string][]string{},
		Preferences: Preferences{
			AutoCopy:        true,
			AutoCommit:      true,
			CommitPrefix:    "AI: ",
			BackupRetention: 5,
		},
	}
}

// LoadConfig reads warden.toml from root. A missing file yields the
// defaults; a malformed one is an error. When no check command is set,
// the defaults for the detected project type fill it in.
func LoadConfig(root string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(root, ConfigFileName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFileName, err)
	default:
		if err := cfg.decode(data); err != nil {
			return nil, err
		}
	}

	cfg.applyProjectDefaults(DetectProject(root))
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	raw := rawConfig{Preferences: c.Preferences}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}
	c.Preferences = raw.Preferences

	for name, v := range raw.Commands {
		cmds, err := commandList(v)
		if err != nil {
			return fmt.Errorf("commands.%s: %w", name, err)
		}
		c.Commands[name] = cmds
	}
	return nil
}

func commandList(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []any:
		cmds := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			cmds = append(cmds, s)
		}
		return cmds, nil
	default:
		return nil, fmt.Errorf("expected string or list of strings, got %T", v)
	}
}

// Checks returns the configured check commands.
func (c *Config) Checks() []string {
	return c.Commands["check"]
}

// Command returns the first command configured under name.
func (c *Config) Command(name string) string {
	if cmds := c.Commands[name]; len(cmds) > 0 {
		return cmds[0]
	}
	return ""
}

type ProjectType int

const (
	ProjectUnknown ProjectType = iota
	ProjectRust
	ProjectNode
	ProjectPython
	ProjectGo
)

func (p ProjectType) String() string {
	switch p {
	case ProjectRust:
		return "rust"
	case ProjectNode:
		return "node"
	case ProjectPython:
		return "python"
	case ProjectGo:
		return "go"
	default:
		return "unknown"
	}
}

func DetectProject(root string) ProjectType {
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(root, name))
		return err == nil
	}
	switch {
	case exists("Cargo.toml"):
		return ProjectRust
	case exists("package.json"):
		return ProjectNode
	case exists("pyproject.toml"), exists("requirements.txt"):
		return ProjectPython
	case exists("go.mod"):
		return ProjectGo
	default:
		return ProjectUnknown
	}
}

func (c *Config) applyProjectDefaults(p ProjectType) {
	if _, ok := c.Commands["check"]; ok {
		return
	}
	for name, cmds := range projectDefaults(p) {
		if _, ok := c.Commands[name]; !ok {
			c.Commands[name] = cmds
		}
	}
}

func projectDefaults(p ProjectType) map[string][]string {
	switch p {
	case ProjectRust:
		return map[string][]string{
			"check": {"cargo clippy --all-targets -- -D warnings -D clippy::pedantic", "cargo test"},
			"fix":   {"cargo fmt"},
		}
	case ProjectNode:
		npx := "npx"
		if runtime.GOOS == "windows" {
			npx = "npx.cmd"
		}
		return map[string][]string{
			"check": {npx + " @biomejs/biome check src/"},
			"fix":   {npx + " @biomejs/biome check --write src/"},
		}
	case ProjectPython:
		return map[string][]string{
			"check": {"ruff check ."},
			"fix":   {"ruff check --fix ."},
		}
	case ProjectGo:
		return map[string][]string{
			"check": {"go vet ./..."},
			"fix":   {"go fmt ./..."},
		}
	default:
		return nil
	}
}

// String renders the effective commands, one per line, for --verbose.
func (c *Config) String() string {
	var b strings.Builder
	for _, name := range []string{"check", "scan", "roadmap", "fix"} {
		for _, cmd := range c.Commands[name] {
			fmt.Fprintf(&b, "%s: %s\n", name, cmd)
		}
	}
	return b.String()
}
