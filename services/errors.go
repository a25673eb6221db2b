package services

import "errors"

// Sentinel errors surfaced to handlers; everything else is internal and
// logged. Handlers map these with errors.Is.
var (
	ErrNotFound               = errors.New("record not found")
	ErrAlreadyCompleted       = errors.New("already completed")
	ErrIncompleteParticipants = errors.New("not all participants have completed")
	ErrHasParticipants        = errors.New("challenge already has participants")
	ErrValidation             = errors.New("validation failed")
	ErrConfigurationMissing   = errors.New("no active gamification settings")
)
