// Package errors provides structured error types used across the pipeline.
// We prefer these over raw fmt.Errorf strings to enable reliable checks with
// errors.Is / errors.As and to carry minimal context about the failure.
package errors

import (
	"errors"
	"fmt"
)

// ConfigError indicates a missing or invalid credential/setting. Fatal at
// startup, never retried.
type ConfigError struct {
	Op  string // where it happened (package.Function)
	Msg string // human friendly message (no secrets)
	Err error  // underlying cause (optional)
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("config: %s: %s", e.Op, e.Msg)
}

func (e *ConfigError) Unwrap() error     { return e.Err }
func (e *ConfigError) Operation() string { return e.Op }

func NewConfig(op, msg string, err error) error {
	return &ConfigError{Op: op, Msg: msg, Err: err}
}

// InputError indicates unsupported or invalid input for a run (unknown video
// platform, malformed URL). Fatal for that run only.
type InputError struct {
	Op  string
	Msg string
	Err error
}

func (e *InputError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("input: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("input: %s: %s", e.Op, e.Msg)
}

func (e *InputError) Unwrap() error     { return e.Err }
func (e *InputError) Operation() string { return e.Op }

func NewInput(op, msg string, err error) error {
	return &InputError{Op: op, Msg: msg, Err: err}
}

// ExternalError represents failures in external collaborators (HTTP APIs,
// SDKs). System names the collaborator, e.g. "google" / "openai" / "transcript".
type ExternalError struct {
	Op     string
	Msg    string
	Err    error
	System string
}

func (e *ExternalError) Error() string {
	if e == nil {
		return "<nil>"
	}
	sys := e.System
	if sys == "" {
		sys = "external"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", sys, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", sys, e.Op, e.Msg)
}

func (e *ExternalError) Unwrap() error     { return e.Err }
func (e *ExternalError) Operation() string { return e.Op }

func NewExternal(op, system, msg string, err error) error {
	return &ExternalError{Op: op, System: system, Msg: msg, Err: err}
}

// RateLimitError marks a rate-limited external call. The retry policy
// recognizes this kind; everything else propagates immediately.
type RateLimitError struct {
	Op     string
	System string
	Err    error
}

func (e *RateLimitError) Error() string {
	if e == nil {
		return "<nil>"
	}
	sys := e.System
	if sys == "" {
		sys = "external"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: rate limited: %v", sys, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s: rate limited", sys, e.Op)
}

func (e *RateLimitError) Unwrap() error     { return e.Err }
func (e *RateLimitError) Operation() string { return e.Op }

func NewRateLimit(op, system string, err error) error {
	return &RateLimitError{Op: op, System: system, Err: err}
}

// DBError represents primary-store access failures.
type DBError struct {
	Op  string
	Msg string
	Err error
}

func (e *DBError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("db: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("db: %s: %s", e.Op, e.Msg)
}

func (e *DBError) Unwrap() error     { return e.Err }
func (e *DBError) Operation() string { return e.Op }

func NewDB(op, msg string, err error) error { return &DBError{Op: op, Msg: msg, Err: err} }

// Kind sentinels for errors.Is-style checks without type assertions.
var (
	ErrConfig    = &ConfigError{}
	ErrInput     = &InputError{}
	ErrExternal  = &ExternalError{}
	ErrRateLimit = &RateLimitError{}
	ErrDB        = &DBError{}
)

// Is reports whether err is of the same kind as target. Delegates to
// errors.As with the zero-value pointer of each type.
func Is(err, target error) bool {
	if err == nil || target == nil {
		return errors.Is(err, target)
	}
	switch target.(type) {
	case *ConfigError:
		var c *ConfigError
		return errors.As(err, &c)
	case *InputError:
		var i *InputError
		return errors.As(err, &i)
	case *ExternalError:
		var ex *ExternalError
		return errors.As(err, &ex)
	case *RateLimitError:
		var r *RateLimitError
		return errors.As(err, &r)
	case *DBError:
		var d *DBError
		return errors.As(err, &d)
	default:
		return errors.Is(err, target)
	}
}

// IsRateLimit is the classifier used by the retry policy.
func IsRateLimit(err error) bool {
	var r *RateLimitError
	return errors.As(err, &r)
}
