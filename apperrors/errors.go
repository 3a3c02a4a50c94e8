// Package apperrors defines the failures an analyzer action can end in.
//
// Every failure carries a Kind and a user-facing Message. Action boundaries
// (HTTP handlers, CLI commands) log the full error and show only the message.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	KindParseFailure         Kind = "PARSE_FAILURE"
	KindNoData               Kind = "NO_DATA"
	KindMissingSessionColumn Kind = "MISSING_SESSION_COLUMN"
	KindNoValidSessions      Kind = "NO_VALID_SESSIONS"
	KindStoreUnavailable     Kind = "STORE_UNAVAILABLE"
	KindStoreOperationFailed Kind = "STORE_OPERATION_FAILED"
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindBusy                 Kind = "ACTION_IN_PROGRESS"
	KindExportFailed         Kind = "EXPORT_FAILED"
	KindInternal             Kind = "INTERNAL_ERROR"
)

// Error is a classified failure with a message safe to show to the user.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind, so the sentinels
// below can be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrParseFailure         = &Error{Kind: KindParseFailure}
	ErrNoData               = &Error{Kind: KindNoData}
	ErrMissingSessionColumn = &Error{Kind: KindMissingSessionColumn}
	ErrNoValidSessions      = &Error{Kind: KindNoValidSessions}
	ErrStoreUnavailable     = &Error{Kind: KindStoreUnavailable}
	ErrStoreOperationFailed = &Error{Kind: KindStoreOperationFailed}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrBusy                 = &Error{Kind: KindBusy}
	ErrExportFailed         = &Error{Kind: KindExportFailed}
)

func ParseFailure(cause error) *Error {
	return &Error{Kind: KindParseFailure, Message: "Failed to parse the CSV file.", Cause: cause}
}

func NoData() *Error {
	return &Error{Kind: KindNoData, Message: "The file contains no data."}
}

func MissingSessionColumn(column string) *Error {
	e := &Error{Kind: KindMissingSessionColumn, Message: "Could not find a session name column."}
	if column != "" {
		e.Cause = fmt.Errorf("column %q not present in any row", column)
	}
	return e
}

func NoValidSessions() *Error {
	return &Error{Kind: KindNoValidSessions, Message: "No valid session data found."}
}

func StoreUnavailable(cause error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: "The report store is not connected.", Cause: cause}
}

// StoreOperationFailed wraps a rejected store call. op is one of save, load or delete.
func StoreOperationFailed(op string, cause error) *Error {
	msg := "The report store rejected the request."
	switch op {
	case "save":
		msg = "An error occurred while saving the data."
	case "load":
		msg = "An error occurred while loading the saved data."
	case "delete":
		msg = "An error occurred while deleting the data."
	}
	return &Error{Kind: KindStoreOperationFailed, Message: msg, Cause: cause}
}

func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// Busy rejects a repeated action, e.g. Busy("save") → "A save is already in progress.".
func Busy(action string) *Error {
	article := "A"
	if action != "" && strings.ContainsRune("aeiouAEIOU", rune(action[0])) {
		article = "An"
	}
	return &Error{Kind: KindBusy, Message: fmt.Sprintf("%s %s is already in progress.", article, action)}
}

func ExportFailed(cause error) *Error {
	return &Error{Kind: KindExportFailed, Message: "Failed to export the report.", Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// UserMessage returns the message to surface for err.
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "An unexpected error occurred."
}
