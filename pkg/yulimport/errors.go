package yulimport

import (
	"fmt"
	"sort"
	"strings"
)

// ErrKind classifies a resolver failure. Every kind is fatal to the
// resolution it occurs in; the caller (typically the directory driver in
// pkg/walk) decides whether to abort the batch or continue with the next
// file.
type ErrKind int

const (
	// ErrFileNotFound means a referenced path does not exist on disk.
	ErrFileNotFound ErrKind = iota
	// ErrFunctionNotFound means a directive names a subroutine absent from
	// its target universe.
	ErrFunctionNotFound
	// ErrSignatureConflict means two occurrences of the same subroutine
	// name disagree on signature during a merge.
	ErrSignatureConflict
	// ErrRead means an I/O error occurred reading a file.
	ErrRead
)

func (k ErrKind) String() string {
	switch k {
	case ErrFileNotFound:
		return "file not found"
	case ErrFunctionNotFound:
		return "subroutine not found"
	case ErrSignatureConflict:
		return "signature conflict"
	case ErrRead:
		return "read error"
	default:
		return "unknown error"
	}
}

// Error is the error type every resolver operation returns on failure.
type Error struct {
	Kind    ErrKind
	File    string
	Name    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s (in %s)", e.Kind, e.Name, e.File)
}

func (e *Error) Unwrap() error { return e.Cause }

func newFileNotFoundError(file string) *Error {
	return &Error{
		Kind:    ErrFileNotFound,
		File:    file,
		Message: fmt.Sprintf("file not found: %s", file),
	}
}

func newReadError(file string, cause error) *Error {
	return &Error{
		Kind:    ErrRead,
		File:    file,
		Cause:   cause,
		Message: fmt.Sprintf("failed to read %s: %v", file, cause),
	}
}

func newFunctionNotFoundError(name, file string, universe *funcSet) *Error {
	available := universe.sortedNames()
	return &Error{
		Kind: ErrFunctionNotFound,
		File: file,
		Name: name,
		Message: fmt.Sprintf(
			"subroutine %q not found in %s\navailable: %s",
			name, file, strings.Join(available, ", "),
		),
	}
}

func newSignatureConflictError(name, sig1, sig2 string) *Error {
	return &Error{
		Kind: ErrSignatureConflict,
		Name: name,
		Message: fmt.Sprintf(
			"signature conflict for %q:\n  %s\n  %s",
			name, sig1, sig2,
		),
	}
}

// sortStrings sorts s in place; tiny wrapper kept local so callers don't
// need to import "sort" just for this one call site.
func sortStrings(s []string) { sort.Strings(s) }
