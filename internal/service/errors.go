// Package service implements the portal's business rules: schedule
// assignment, catalog management, presentation uploads and the staged file
// lifecycle.  Every operation reports failures as one of the typed errors
// below or as an unexpected error the HTTP layer turns into a 500.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/conference-portal/internal/repository"
)

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	Key    any
	Msg    string // overrides the generated message when set
}

func (e *NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

// ConflictError reports a violated uniqueness or state rule.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// ValidationError reports bad input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// ErrProcessingInProgress is returned by ProcessPending when another run
// holds the processing lock.
var ErrProcessingInProgress = &ConflictError{Msg: "file processing already in progress"}

func notFound(entity string, key any) error { return &NotFoundError{Entity: entity, Key: key} }

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// lookupErr turns repository.ErrNotFound into a NotFoundError and passes
// everything else through wrapped.
func lookupErr(err error, entity string, key any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(entity, key)
	}
	return fmt.Errorf("load %s %v: %w", entity, key, err)
}
