package config

import (
	"slices"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HOOKWRAP_"

// envMapping maps environment variables to the setting they override.
var envMapping = map[string]func(c *Config, v string){
	"HOOKWRAP_LOG_LEVEL":    func(c *Config, v string) { c.Logging.Level = v },
	"HOOKWRAP_LOG_FORMAT":   func(c *Config, v string) { c.Logging.Format = strings.ToLower(v) },
	"HOOKWRAP_LOG_FILE":     func(c *Config, v string) { c.Logging.File = v },
	"HOOKWRAP_SCHEDULER":    func(c *Config, v string) { c.Scheduler.Mode = strings.ToLower(v) },
	"HOOKWRAP_SCRIPT":       func(c *Config, v string) { c.Script.Path = v },
	"HOOKWRAP_TARGET":       func(c *Config, v string) { c.Script.Target = v },
	"HOOKWRAP_CALL_TIMEOUT": func(c *Config, v string) { c.Script.CallTimeout = v },
}

// ApplyEnv overrides settings from environment variables.
// Empty values are treated as set.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) {
	for env, apply := range envMapping {
		if v, ok := lookup(env); ok {
			apply(c, v)
		}
	}
}

// EnvVars returns the recognized environment variable names, sorted.
func EnvVars() []string {
	names := make([]string, 0, len(envMapping))
	for name := range envMapping {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
