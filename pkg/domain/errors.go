package domain

import "errors"

// ErrUnknownDialog is returned when a dialog name is not present in the registry.
var ErrUnknownDialog = errors.New("unknown dialog")

// ErrDuplicateDialog is returned when registering a dialog name twice.
var ErrDuplicateDialog = errors.New("dialog already registered")

// ErrStateNotFound is returned when a principal has no persisted state bag.
var ErrStateNotFound = errors.New("state not found")
