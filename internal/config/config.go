// Package config loads postmortem settings.
//
// Settings are layered from lowest to highest priority:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension
//  3. POSTMORTEM_* environment variables
//
// Load applies the layers and validates the result:
//
//	cfg, err := config.Load("postmortem.toml")
//	if err != nil {
//	    return err
//	}
//	reg := debugger.New(c, debugger.WithMaxInspectSize(cfg.Debugger.MaxInspectSize))
package config

import (
	"errors"
	"strings"

	"github.com/dshills/postmortem/internal/debugger"
	"github.com/dshills/postmortem/internal/editor"
	"github.com/dshills/postmortem/internal/logging"
	"github.com/dshills/postmortem/internal/repl"
	"github.com/dshills/postmortem/internal/source"
)

// Config holds all postmortem settings.
type Config struct {
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Debugger DebuggerConfig `toml:"debugger" yaml:"debugger"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr" yaml:"addr"`

	// StoreCapacity is how many captures are kept before the oldest is
	// evicted.
	StoreCapacity int `toml:"store_capacity" yaml:"store_capacity"`

	// MCP enables the /mcp tool endpoint.
	MCP bool `toml:"mcp" yaml:"mcp"`
}

// DebuggerConfig configures capture inspection and evaluation.
type DebuggerConfig struct {
	// MaxInspectSize bounds the raw rendering of a variable, in characters.
	// Zero disables the bound.
	MaxInspectSize int `toml:"max_inspect_size" yaml:"max_inspect_size"`

	// ContextLines is the number of source lines shown on each side of a
	// frame's line.
	ContextLines int `toml:"context_lines" yaml:"context_lines"`

	// Root is the application root used to classify frames and shorten
	// paths. Empty means every non-library frame is application code.
	Root string `toml:"root" yaml:"root"`

	// Editor is a preset name or a URL template with %{file} and %{line}.
	Editor string `toml:"editor" yaml:"editor"`

	// Provider names the REPL provider.
	Provider string `toml:"provider" yaml:"provider"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          "127.0.0.1:4567",
			StoreCapacity: debugger.DefaultStoreCapacity,
			MCP:           true,
		},
		Debugger: DebuggerConfig{
			MaxInspectSize: debugger.DefaultMaxInspectSize,
			ContextLines:   source.DefaultRadius,
			Provider:       "lua",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		invalid("server.addr", "must not be empty", c.Server.Addr)
	}
	if c.Server.StoreCapacity <= 0 {
		invalid("server.store_capacity", "must be positive", c.Server.StoreCapacity)
	}
	if c.Debugger.MaxInspectSize < 0 {
		invalid("debugger.max_inspect_size", "must not be negative", c.Debugger.MaxInspectSize)
	}
	if c.Debugger.ContextLines < 0 {
		invalid("debugger.context_lines", "must not be negative", c.Debugger.ContextLines)
	}
	if _, err := c.EditorFormatter(); err != nil {
		invalid("debugger.editor", err.Error(), c.Debugger.Editor)
	}
	if _, err := c.REPLProvider(); err != nil {
		invalid("debugger.provider", err.Error(), c.Debugger.Provider)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		invalid("logging.level", "unknown level", c.Logging.Level)
	}

	return errors.Join(errs...)
}

// EditorFormatter resolves the editor setting.
func (c *Config) EditorFormatter() (editor.Formatter, error) {
	return editor.ForName(c.Debugger.Editor)
}

// REPLProvider resolves the provider setting.
func (c *Config) REPLProvider() (repl.Provider, error) {
	return repl.ForName(c.Debugger.Provider)
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
