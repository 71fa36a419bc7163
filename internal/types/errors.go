package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can pick a policy.
type ErrorKind int

const (
	// KindConfig is a missing or invalid setting; fatal at startup.
	KindConfig ErrorKind = iota + 1
	// KindTransient is a failed or timed out call to an external service.
	KindTransient
	// KindParse is malformed output from an external service.
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransient:
		return "transient"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error carries a kind alongside the failing operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ConfigError wraps err as a configuration failure.
func ConfigError(op string, err error) error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

// TransientError wraps err as a failed external call.
func TransientError(op string, err error) error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// ParseError wraps err as malformed external output.
func ParseError(op string, err error) error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsConfig(err error) bool    { return KindOf(err) == KindConfig }
func IsTransient(err error) bool { return KindOf(err) == KindTransient }
func IsParse(err error) bool     { return KindOf(err) == KindParse }

// ErrNotFound reports a missing row, such as a profile that was never written.
var ErrNotFound = errors.New("not found")
