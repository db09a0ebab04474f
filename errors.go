// FILE: argconfig/errors.go
package argconfig

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error below matches its sentinel through errors.Is.
var (
	ErrDecode            = errors.New("invalid command-line value")
	ErrTypeMismatch      = errors.New("value does not match declared type")
	ErrMissingRequired   = errors.New("missing required fields")
	ErrUnsupportedFormat = errors.New("unsupported configuration file format")
	ErrSchemaDeclaration = errors.New("invalid schema declaration")
	ErrConfigNotFound    = errors.New("configuration file not found")
	ErrCLIParse          = errors.New("failed to parse command-line arguments")
)

// DecodeError reports a command-line token that does not fit its declared kind.
type DecodeError struct {
	Path     string
	Token    string
	Expected string
	Reason   string
	Err      error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("invalid value %q for --%s (expected %s)", e.Token, e.Path, e.Expected)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func (e *DecodeError) Unwrap() error { return e.Err }

// TypeMismatchError reports a file- or default-sourced value that violates its declared kind.
type TypeMismatchError struct {
	Path     string
	Expected Kind
	Value    any
	Reason   string
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("invalid value for %s: expected %s, got %v (%T)", e.Path, kindName(e.Expected), e.Value, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// MissingRequiredFieldError lists every required leaf of one record that received no value.
type MissingRequiredFieldError struct {
	Record string
	Paths  []string
}

func (e *MissingRequiredFieldError) Error() string {
	flags := make([]string, len(e.Paths))
	for i, p := range e.Paths {
		flags[i] = "--" + p
	}
	return fmt.Sprintf("missing required arguments for %s: %s; these must be provided either as command-line arguments or in the config file",
		e.Record, strings.Join(flags, ", "))
}

func (e *MissingRequiredFieldError) Is(target error) bool { return target == ErrMissingRequired }

// UnsupportedFormatError reports a configuration file with an unknown extension.
type UnsupportedFormatError struct {
	Path      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q for '%s'; supported formats are: %s",
		e.Extension, e.Path, strings.Join(SupportedExtensions(), ", "))
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// SchemaDeclarationError reports an invalid schema, record alias, or flag declaration.
type SchemaDeclarationError struct {
	Subject string
	Reason  string
}

func (e *SchemaDeclarationError) Error() string {
	if e.Subject == "" {
		return "invalid declaration: " + e.Reason
	}
	return fmt.Sprintf("invalid declaration %s: %s", e.Subject, e.Reason)
}

func (e *SchemaDeclarationError) Is(target error) bool { return target == ErrSchemaDeclaration }

func declErr(subject, format string, args ...any) *SchemaDeclarationError {
	return &SchemaDeclarationError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}
