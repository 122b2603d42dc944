package model

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed input: a bad document shape, a missing
// required field, or an identifier that does not match the expected format.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a *ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ReferenceError reports a lookup that failed: an unknown league, season,
// week, game, transaction, or an unresolvable team alias. Path names the
// exact segment that was missing.
type ReferenceError struct {
	Path string
	Msg  string
}

func (e *ReferenceError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("%s not found", e.Path)
}

// Referencef builds a *ReferenceError for the given path segment.
func Referencef(path, format string, args ...any) error {
	return &ReferenceError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// DuplicateError reports an exact-match record already present. Fatal for
// game ingest; transaction ingest downgrades duplicates to a skip.
type DuplicateError struct {
	Msg string
}

func (e *DuplicateError) Error() string { return e.Msg }

// Duplicatef builds a *DuplicateError with a formatted message.
func Duplicatef(format string, args ...any) error {
	return &DuplicateError{Msg: fmt.Sprintf(format, args...)}
}

// ConsistencyError carries the verification issues that blocked a commit.
type ConsistencyError struct {
	Issues []string
}

func (e *ConsistencyError) Error() string {
	return "verification failed:\n - " + strings.Join(e.Issues, "\n - ")
}
