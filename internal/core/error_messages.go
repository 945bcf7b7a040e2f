package core

// error_messages.go maps load errors to user-facing messages with codes
// for support reference.
//
// # Error Codes Reference
//
// # Load Errors
//
// Typed errors are matched first, with errors.As:
//
//	CFG001 - Unknown mapping key
//	         Action: Check the --table value against the mapping file
//	CFG002 - Invalid configuration or mapping entry
//	         Action: Fix the mapping file or environment settings
//	IN001  - Source file not found
//	         Action: Check file_name in the mapping file
//	IN002  - Source file unreadable or malformed
//	         Action: Ensure the file is a delimited text file with consistent columns
//	SCH001 - Target table missing or unusable
//	         Action: Verify the table name and its columns
//	CAST001 - A value does not fit its column type
//	          Action: Fix the value or change the column type
//
// # Database Errors (DB001-DB099)
//
// Untyped errors are matched by case-insensitive substring:
//
//	DB001 - Duplicate key             Patterns: "duplicate key", "duplicate entry"
//	DB002 - Unique constraint         Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key               Patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused        Patterns: "connection refused", "no such host"
//	DB005 - Connection reset          Patterns: "connection reset", "broken pipe"
//	DB006 - Timeout                   Patterns: "timeout", "deadline exceeded"
//	DB007 - Deadlock                  Patterns: "deadlock"
//	DB008 - Access denied             Patterns: "access denied", "password authentication failed", "login failed"
//	DB009 - Value too long            Patterns: "too long", "data too long", "would be truncated"
//
// # Limiter Errors
//
//	LOAD001 - Too many concurrent loads   Patterns: "too many concurrent loads"
//	LOAD002 - Request cancelled           Patterns: "context canceled"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error,
// which carries the run_id of the load.

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is searched in order; the first match wins, so specific
// patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Remove duplicate rows or load with override_wipe=true",
			Code:    "DB001",
		},
	},
	{
		pattern: "duplicate entry",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Remove duplicate rows or load with override_wipe=true",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your CSV",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate key values",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Load parent tables first",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Load parent tables first",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DB_HOST and DB_PORT and that the server is running",
			Code:    "DB004",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DB_HOST and DB_PORT and that the server is running",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "broken pipe",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "too many concurrent loads",
		msg: UserMessage{
			Message: "System is busy processing other loads",
			Action:  "Please wait a moment and try again",
			Code:    "LOAD001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Load was cancelled",
			Action:  "Please try again",
			Code:    "LOAD002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or raise LOAD_TIMEOUT",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or raise LOAD_TIMEOUT",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "access denied",
		msg: UserMessage{
			Message: "Database rejected the credentials",
			Action:  "Check DB_USER and DB_PASSWORD",
			Code:    "DB008",
		},
	},
	{
		pattern: "password authentication failed",
		msg: UserMessage{
			Message: "Database rejected the credentials",
			Action:  "Check DB_USER and DB_PASSWORD",
			Code:    "DB008",
		},
	},
	{
		pattern: "login failed",
		msg: UserMessage{
			Message: "Database rejected the credentials",
			Action:  "Check DB_USER and DB_PASSWORD",
			Code:    "DB008",
		},
	},
	{
		pattern: "too long",
		msg: UserMessage{
			Message: "A value is longer than its column allows",
			Action:  "Shorten the value or widen the column",
			Code:    "DB009",
		},
	},
	{
		pattern: "would be truncated",
		msg: UserMessage{
			Message: "A value is longer than its column allows",
			Action:  "Shorten the value or widen the column",
			Code:    "DB009",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Typed
// load errors are recognized anywhere in the wrap chain; other errors are
// matched against known patterns. Returns the ERR000 fallback when nothing
// matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTypedError(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTypedError(err error) (UserMessage, bool) {
	var (
		cfgErr    *ConfigurationError
		inErr     *InputError
		schemaErr *SchemaError
		castErr   *CastError
	)

	switch {
	case errors.As(err, &castErr):
		return UserMessage{
			Message: fmt.Sprintf("Column %q row %d: %q is not a valid %s", castErr.Column, castErr.Row, castErr.Value, castErr.To),
			Action:  "Fix the value or change the column type",
			Code:    "CAST001",
		}, true

	case errors.As(err, &schemaErr):
		return UserMessage{
			Message: fmt.Sprintf("Table %q: %s", schemaErr.Table, schemaErr.Reason),
			Action:  "Verify the table name and its columns",
			Code:    "SCH001",
		}, true

	case errors.As(err, &inErr):
		if errors.Is(inErr, fs.ErrNotExist) {
			return UserMessage{
				Message: fmt.Sprintf("Source file not found: %s", inErr.Path),
				Action:  "Check file_name in the mapping file",
				Code:    "IN001",
			}, true
		}
		return UserMessage{
			Message: fmt.Sprintf("Cannot read source file %s: %s", inErr.Path, inErr.Reason),
			Action:  "Ensure the file is a delimited text file with consistent columns",
			Code:    "IN002",
		}, true

	case errors.As(err, &cfgErr):
		if errors.Is(cfgErr, ErrUnknownKey) {
			return UserMessage{
				Message: fmt.Sprintf("No mapping entry for %q", cfgErr.Key),
				Action:  "Check the --table value against the mapping file",
				Code:    "CFG001",
			}, true
		}
		return UserMessage{
			Message: "Invalid configuration: " + cfgErr.Reason,
			Action:  "Fix the mapping file or environment settings",
			Code:    "CFG002",
		}, true
	}

	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its
// user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
