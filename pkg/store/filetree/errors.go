package filetree

import (
	"errors"
	"fmt"
)

// StoreError represents a domain error from file tree operations.
//
// These are business logic errors (path locked, signature mismatch, record not
// found) as opposed to infrastructure errors (disk failure, corrupt database),
// which are wrapped with fmt.Errorf and carry no code.
//
// Callers switch on Code to decide how to surface the failure: conflict codes
// become "upload already in progress" style messages, everything else is a
// generic failure.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the file tree path related to the error (if applicable)
	Path string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode represents the category of a StoreError.
type ErrorCode int

const (
	// ErrNotFound indicates the requested scope/object/version doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrAlreadyExists indicates an object already exists at (scope, path),
	// or a scope already owns a root tree
	ErrAlreadyExists

	// ErrInvalidArgument indicates invalid parameters were provided
	// Examples: ".." path segment, page < 1, empty signature
	ErrInvalidArgument

	// ErrIsDirectory indicates a record was requested where a tree exists
	ErrIsDirectory

	// ErrNotDirectory indicates a tree was requested where a record exists
	ErrNotDirectory

	// ErrPathLocked indicates the record's latest version is still pending
	ErrPathLocked

	// ErrSignatureConsumed indicates the latest version already carries the
	// presented signature (duplicate submission)
	ErrSignatureConsumed

	// ErrVersionNotPending indicates a resolve/cancel on a finished version
	ErrVersionNotPending

	// ErrPendingSignatureMismatch indicates the presented signature does not
	// match the pending version's signature
	ErrPendingSignatureMismatch

	// ErrDelete indicates the record is already deleted
	ErrDelete

	// ErrUndelete indicates the record is not deleted
	ErrUndelete

	// ErrNoVersions indicates a required latest version is absent
	ErrNoVersions

	// ErrValidation indicates a malformed version (bad status, missing
	// location keys on a complete version, unparseable metadata)
	ErrValidation

	// ErrInvalidKind indicates the copy engine met an object of unknown kind
	ErrInvalidKind

	// ErrLocationUnavailable indicates the blob location of an upload could
	// not be verified
	ErrLocationUnavailable

	// ErrIOError indicates the storage backend failed
	ErrIOError
)

var errorCodeNames = map[ErrorCode]string{
	ErrNotFound:                 "NotFound",
	ErrAlreadyExists:            "AlreadyExists",
	ErrInvalidArgument:          "InvalidArgument",
	ErrIsDirectory:              "IsDirectory",
	ErrNotDirectory:             "NotDirectory",
	ErrPathLocked:               "PathLocked",
	ErrSignatureConsumed:        "SignatureConsumed",
	ErrVersionNotPending:        "VersionNotPending",
	ErrPendingSignatureMismatch: "PendingSignatureMismatch",
	ErrDelete:                   "Delete",
	ErrUndelete:                 "Undelete",
	ErrNoVersions:               "NoVersions",
	ErrValidation:               "Validation",
	ErrInvalidKind:              "InvalidKind",
	ErrLocationUnavailable:      "LocationUnavailable",
	ErrIOError:                  "IOError",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// NewError builds a StoreError.
func NewError(code ErrorCode, path, format string, args ...any) *StoreError {
	return &StoreError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	}
}

// IsCode reports whether err (or anything it wraps) is a StoreError with code.
func IsCode(err error, code ErrorCode) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// CodeOf returns the code of the StoreError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
