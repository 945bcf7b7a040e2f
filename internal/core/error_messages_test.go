package core

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "unknown mapping key",
			err:      &ConfigurationError{Key: "sales", Reason: "no mapping entry", Err: ErrUnknownKey},
			wantCode: "CFG001",
		},
		{
			name:     "other configuration error",
			err:      &ConfigurationError{Key: "sales", Reason: "table_name is required"},
			wantCode: "CFG002",
		},
		{
			name:     "missing source file",
			err:      &InputError{Path: "data.csv", Reason: "file not found", Err: fs.ErrNotExist},
			wantCode: "IN001",
		},
		{
			name:     "malformed source file",
			err:      &InputError{Path: "data.csv", Line: 3, Reason: "expected 2 fields, saw 3"},
			wantCode: "IN002",
		},
		{
			name:     "schema error",
			err:      &SchemaError{Table: "sales", Reason: "table has no columns"},
			wantCode: "SCH001",
		},
		{
			name:     "wrapped cast error",
			err:      fmt.Errorf("load sales: %w", &CastError{Column: "id", Row: 2, Value: "abc", To: KindInteger}),
			wantCode: "CAST001",
		},
		{
			name:     "postgres duplicate key",
			err:      errors.New("ERROR: duplicate key value violates unique constraint \"sales_pkey\""),
			wantCode: "DB001",
		},
		{
			name:     "mysql duplicate entry",
			err:      errors.New("Error 1062 (23000): Duplicate entry '1' for key 'PRIMARY'"),
			wantCode: "DB001",
		},
		{
			name:     "foreign key",
			err:      errors.New("violates foreign key constraint"),
			wantCode: "DB003",
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"),
			wantCode: "DB004",
		},
		{
			name:     "access denied",
			err:      errors.New("Error 1045 (28000): Access denied for user 'loader'@'localhost'"),
			wantCode: "DB008",
		},
		{
			name:     "value too long",
			err:      errors.New("Error 1406 (22001): Data too long for column 'name' at row 1"),
			wantCode: "DB009",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestMapError_CastMessage(t *testing.T) {
	err := &CastError{Table: "sales", Column: "id", Row: 2, Value: "abc", From: KindText, To: KindInteger}

	got := MapError(err).Message
	want := `Column "id" row 2: "abc" is not a valid integer`
	if got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}
}

func TestFormatUserError(t *testing.T) {
	err := errors.New("duplicate key value violates")
	result := FormatUserError(err)

	expected := "A record with this key already exists (Code: DB001). Remove duplicate rows or load with override_wipe=true"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known pattern is user facing", errors.New("duplicate key"), true},
		{"typed error is user facing", &SchemaError{Table: "t", Reason: "x"}, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := errors.New("pq: duplicate key value")
		userErr := NewUserError(techErr)

		if userErr.Error() != "A record with this key already exists" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}
