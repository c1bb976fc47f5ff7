package services

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateUsername        = errors.New("username already exists")
	ErrAuthFailure              = errors.New("invalid credentials")
	ErrNoSession                = errors.New("no active session")
	ErrNotFound                 = errors.New("not found")
	ErrEmptyContent             = errors.New("message content is empty")
	ErrNotAMember               = errors.New("user is not a member of the room")
	ErrStoreUnavailable         = errors.New("store unavailable")
	ErrConcurrentCreateConflict = errors.New("concurrent room creation conflict")

	ErrInvalidUsername = errors.New("username must be between 3 and 32 characters")
	ErrWeakPassword    = errors.New("password must be at least 8 characters and at most 72 bytes")
	ErrMessageTooLong  = errors.New("message too long")
	ErrNoMembers       = errors.New("room needs at least one member")
)

// storeError reports a storage failure as ErrStoreUnavailable while keeping
// the driver error in the chain.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
