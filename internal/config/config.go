// Package config loads hookwrap configuration.
//
// Configuration is read from a TOML or YAML file (chosen by extension),
// layered over defaults, then overridden by HOOKWRAP_* environment
// variables:
//
//	[logging]
//	level = "debug"
//
//	[scheduler]
//	mode = "loop"
//
//	[script]
//	path = "hooks.lua"
//	target = "sum"
//	call_timeout = "2s"
//
//	[[hooks]]
//	stage = "before"
//	function = "trace"
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/hookwrap/hook"
	"github.com/dshills/hookwrap/internal/logging"
)

// Scheduler modes.
const (
	// SchedulerLoop runs deferred hooks on a background worker.
	SchedulerLoop = "loop"
	// SchedulerQueue runs deferred hooks when the caller drains them.
	SchedulerQueue = "queue"
)

// Config is the complete hookwrap configuration.
type Config struct {
	Logging   logging.Config  `toml:"logging" yaml:"logging"`
	Scheduler SchedulerConfig `toml:"scheduler" yaml:"scheduler"`
	Script    ScriptConfig    `toml:"script" yaml:"script"`
	Hooks     []HookBinding   `toml:"hooks" yaml:"hooks"`
}

// SchedulerConfig selects where deferred after-stage work runs.
type SchedulerConfig struct {
	Mode string `toml:"mode" yaml:"mode"`
}

// ScriptConfig points at the Lua script defining the target and hooks.
type ScriptConfig struct {
	// Path is the script file. Relative paths resolve against the
	// directory of the config file.
	Path string `toml:"path" yaml:"path"`

	// Target is the global Lua function that gets wrapped.
	Target string `toml:"target" yaml:"target"`

	// CallTimeout bounds each Lua call, e.g. "500ms". Empty disables it.
	CallTimeout string `toml:"call_timeout" yaml:"call_timeout"`
}

// HookBinding binds a Lua function to a stage.
type HookBinding struct {
	Stage    string `toml:"stage" yaml:"stage"`
	Function string `toml:"function" yaml:"function"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Logging:   logging.DefaultConfig(),
		Scheduler: SchedulerConfig{Mode: SchedulerLoop},
		Script:    ScriptConfig{Target: "main"},
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, &FieldError{Field: "logging.level", Value: c.Logging.Level, Err: ErrInvalidValue})
	}
	switch c.Logging.Format {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, &FieldError{Field: "logging.format", Value: c.Logging.Format, Err: ErrInvalidValue})
	}

	switch c.Scheduler.Mode {
	case SchedulerLoop, SchedulerQueue:
	default:
		errs = append(errs, &FieldError{Field: "scheduler.mode", Value: c.Scheduler.Mode, Err: ErrInvalidValue})
	}

	if c.Script.Path == "" {
		errs = append(errs, &FieldError{Field: "script.path", Err: ErrMissingValue})
	}
	if c.Script.Target == "" {
		errs = append(errs, &FieldError{Field: "script.target", Err: ErrMissingValue})
	}
	if _, err := c.CallTimeout(); err != nil {
		errs = append(errs, &FieldError{Field: "script.call_timeout", Value: c.Script.CallTimeout, Err: err})
	}

	for i, b := range c.Hooks {
		field := fmt.Sprintf("hooks[%d]", i)
		if _, err := b.ParsedStage(); err != nil {
			errs = append(errs, &FieldError{Field: field + ".stage", Value: b.Stage, Err: err})
		}
		if b.Function == "" {
			errs = append(errs, &FieldError{Field: field + ".function", Err: ErrMissingValue})
		}
	}

	return errors.Join(errs...)
}

// CallTimeout parses Script.CallTimeout. An empty value means no timeout.
func (c *Config) CallTimeout() (time.Duration, error) {
	if c.Script.CallTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Script.CallTimeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, ErrInvalidValue
	}
	return d, nil
}

// ParsedStage returns the binding's stage.
func (b HookBinding) ParsedStage() (hook.Stage, error) {
	return hook.ParseStage(b.Stage)
}
