// Package config decodes the alphabet.toml project file: the VM stack
// size, REPL prompts, and the FFI bridge's directory allowlist.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the project file alphabet looks for in the current
// directory and its ancestors, mirroring the teacher's sola.toml lookup.
const ConfigFileName = "alphabet.toml"

// Config is the decoded project file. Every field has a documented
// default, so a missing alphabet.toml is not an error — it just means
// every field falls back to Default().
type Config struct {
	VM   VMConfig   `toml:"vm"`
	REPL REPLConfig `toml:"repl"`
	FFI  FFIConfig  `toml:"ffi"`
}

// VMConfig controls the operand stack bound.
type VMConfig struct {
	// StackSize overrides vm.DefaultMaxStack. Zero keeps the default.
	StackSize int `toml:"stack_size"`
}

// REPLConfig controls the interactive prompts.
type REPLConfig struct {
	PromptPrimary  string `toml:"prompt_primary"`
	PromptContinue string `toml:"prompt_continue"`
}

// FFIConfig restricts which directories z's FFI bridge may dlopen from.
type FFIConfig struct {
	AllowedDirs []string `toml:"ffi_allowed_dirs"`
}

// Default returns the configuration used when no alphabet.toml is
// found, or when a field is absent from one that is.
func Default() Config {
	return Config{
		VM:   VMConfig{StackSize: 0},
		REPL: REPLConfig{PromptPrimary: ">>> ", PromptContinue: "... "},
		FFI:  FFIConfig{AllowedDirs: nil},
	}
}

// Load reads and decodes path. A missing file is not an error: Default()
// is returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.REPL.PromptPrimary == "" {
		cfg.REPL.PromptPrimary = ">>> "
	}
	if cfg.REPL.PromptContinue == "" {
		cfg.REPL.PromptContinue = "... "
	}
	return cfg, nil
}

// Find walks up from startPath looking for alphabet.toml, returning its
// full path or "" if none exists up to the filesystem root.
func Find(startPath string) string {
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}
	dir := startPath
	if !info.IsDir() {
		dir = filepath.Dir(startPath)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadFromDir finds and loads the nearest alphabet.toml above startPath,
// falling back to Default() when none exists.
func LoadFromDir(startPath string) (Config, error) {
	path := Find(startPath)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// IsAllowedDir reports whether dir is in the FFI allowlist. An empty
// allowlist denies every directory — the bridge is opt-in.
func (c FFIConfig) IsAllowedDir(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	for _, allowed := range c.AllowedDirs {
		allowedAbs, err := filepath.Abs(allowed)
		if err != nil {
			allowedAbs = allowed
		}
		if abs == allowedAbs {
			return true
		}
	}
	return false
}
