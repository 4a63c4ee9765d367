package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four domain failure kinds. Services wrap them with
// fmt.Errorf("...: %w", err) so callers can match with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrPreconditionFailed  = errors.New("precondition failed")
	ErrConcurrencyConflict = errors.New("concurrent modification, retry from a fresh read")
)

// NotFoundError reports a missing entity together with what was looked up.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TransitionError reports an illegal status change.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s: %v", e.From, e.To, ErrInvalidTransition)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// PreconditionError carries enough detail for the caller to correct input.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, ErrPreconditionFailed)
}

func (e *PreconditionError) Unwrap() error { return ErrPreconditionFailed }
