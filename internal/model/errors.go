package model

import "errors"

var (
	// Ledger related errors
	ErrEntryExists    = errors.New("an active trash entry already exists for this subject")
	ErrEntryNotFound  = errors.New("trash entry not found")
	ErrTaskInProgress = errors.New("deletion task already in progress")
	ErrJobNotFound    = errors.New("scheduled job not found")

	// Subject related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrAssetNotFound      = errors.New("asset not found")
	ErrXFormNotFound      = errors.New("xform not found")
	ErrAttachmentNotFound = errors.New("attachment not found")

	// Request validation errors
	ErrInvalidKind        = errors.New("invalid trash kind")
	ErrInvalidGracePeriod = errors.New("invalid grace period")
	ErrNoSubjects         = errors.New("at least one subject is required")
)
