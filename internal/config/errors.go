package config

import "errors"

// Sentinel errors for the config package.
var (
	// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrInvalidValue is returned when a setting has a value outside its domain.
	ErrInvalidValue = errors.New("invalid value")

	// ErrMissingValue is returned when a required setting is empty.
	ErrMissingValue = errors.New("missing value")
)

// FieldError describes a problem with one setting.
type FieldError struct {
	Field string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Value == "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + " " + "\"" + e.Value + "\": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a config file cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return "parsing " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
