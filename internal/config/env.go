package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable Load reads.
const EnvPrefix = "POSTMORTEM_"

// envAliases maps short variable names to setting paths.
var envAliases = map[string]string{
	"POSTMORTEM_ADDR":      "server.addr",
	"POSTMORTEM_EDITOR":    "debugger.editor",
	"POSTMORTEM_PROVIDER":  "debugger.provider",
	"POSTMORTEM_ROOT":      "debugger.root",
	"POSTMORTEM_LOG_LEVEL": "logging.level",
}

// settings returns a pointer to every setting keyed by its dotted path.
func (c *Config) settings() map[string]any {
	return map[string]any{
		"server.addr":               &c.Server.Addr,
		"server.store_capacity":     &c.Server.StoreCapacity,
		"server.mcp":                &c.Server.MCP,
		"debugger.max_inspect_size": &c.Debugger.MaxInspectSize,
		"debugger.context_lines":    &c.Debugger.ContextLines,
		"debugger.root":             &c.Debugger.Root,
		"debugger.editor":           &c.Debugger.Editor,
		"debugger.provider":         &c.Debugger.Provider,
		"logging.level":             &c.Logging.Level,
	}
}

// applyEnv overlays prefixed variables from environ onto c. Variables that
// name no setting are ignored. Empty values are valid values, not unset.
func (c *Config) applyEnv(prefix string, environ []string) error {
	settings := c.settings()

	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}

		path, aliased := envAliases[name]
		if !aliased {
			path = envToPath(prefix, name)
		}
		ptr, known := settings[path]
		if !known {
			continue
		}
		if err := set(ptr, value); err != nil {
			return &ParseError{Path: "$" + name, Message: err.Error(), Err: err}
		}
	}
	return nil
}

// envToPath converts POSTMORTEM_DEBUGGER_MAX_INSPECT_SIZE to
// debugger.max_inspect_size.
func envToPath(prefix, env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, prefix))
	section, key, ok := strings.Cut(name, "_")
	if !ok {
		return name
	}
	return section + "." + key
}

func set(ptr any, value string) error {
	switch p := ptr.(type) {
	case *string:
		*p = value
	case *int:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		*p = n
	case *bool:
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		*p = b
	default:
		return fmt.Errorf("unsupported setting type %T", ptr)
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
