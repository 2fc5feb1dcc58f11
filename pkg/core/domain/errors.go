package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by services and adapters. Callers match with
// errors.Is; adapters wrap with fmt.Errorf("...: %w", err) for context.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("storage unavailable")
)

// Conflict refinements so the management service can tell which unique
// constraint lost a race: a taken short code is retried with a fresh code,
// a duplicate (owner, originalUrl) resolves to the existing record.
var (
	ErrCodeTaken    = fmt.Errorf("%w: short code already taken", ErrConflict)
	ErrDuplicateURL = fmt.Errorf("%w: url already shortened by this owner", ErrConflict)
)
