package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "test error")
	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "test error" {
		t.Errorf("expected message 'test error', got %s", err.Message)
	}
	if err.Err != nil {
		t.Errorf("expected nil wrapped error, got %v", err.Err)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("permission denied")
	err := Wrap(originalErr, CodeFilesystem, "rename failed")

	if err.Code != CodeFilesystem {
		t.Errorf("expected code %s, got %s", CodeFilesystem, err.Code)
	}
	if err.Err != originalErr {
		t.Errorf("expected wrapped error to be original error")
	}
}

func TestAppErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			err:      New(CodeValidation, "validation failed"),
			expected: "[VALIDATION_ERROR] validation failed",
		},
		{
			name:     "error with wrapped error",
			err:      Wrap(errors.New("inner"), CodeDatabase, "db error"),
			expected: "[DATABASE_ERROR] db error: inner",
		},
		{
			name:     "no year found",
			err:      NoYearFound("RandomFolder"),
			expected: `[NO_YEAR_FOUND] year not found in "RandomFolder"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	originalErr := errors.New("original")
	err := Wrap(originalErr, CodeDatabase, "wrapped")

	if unwrapped := err.Unwrap(); unwrapped != originalErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, originalErr)
	}
}

func TestFilesystemError(t *testing.T) {
	originalErr := errors.New("cross-device link")
	err := FilesystemError("rename", "/downloads/a", originalErr)

	if err.Code != CodeFilesystem {
		t.Errorf("expected code %s, got %s", CodeFilesystem, err.Code)
	}
	if err.Context["op"] != "rename" {
		t.Errorf("expected op context 'rename', got %v", err.Context["op"])
	}
	if err.Context["path"] != "/downloads/a" {
		t.Errorf("expected path context, got %v", err.Context["path"])
	}
	if !errors.Is(err, originalErr) {
		t.Errorf("expected errors.Is to find the original error")
	}
}

func TestConfigError(t *testing.T) {
	t.Run("with wrapped error", func(t *testing.T) {
		originalErr := errors.New("file not found")
		err := ConfigError("config load failed", originalErr)
		if err.Code != CodeConfig {
			t.Errorf("expected code %s, got %s", CodeConfig, err.Code)
		}
		if err.Err != originalErr {
			t.Errorf("expected wrapped error to be original error")
		}
	})

	t.Run("without wrapped error", func(t *testing.T) {
		err := ConfigError("missing required field", nil)
		if err.Err != nil {
			t.Errorf("expected nil wrapped error, got %v", err.Err)
		}
	})
}

func TestIsSkip(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"no year", NoYearFound("x"), true},
		{"no show pattern", NoShowPatternFound("x"), true},
		{"unchanged", Unchanged("x"), true},
		{"wrapped unchanged", fmt.Errorf("normalize: %w", Unchanged("x")), true},
		{"filesystem", FilesystemError("rename", "x", errors.New("boom")), false},
		{"standard error", errors.New("standard"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSkip(tt.err); got != tt.expected {
				t.Errorf("IsSkip() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(ConfigError("bad", nil)) {
		t.Error("expected config error to be fatal")
	}
	if !IsFatal(LockError("/tmp/run.lock", nil)) {
		t.Error("expected lock error to be fatal")
	}
	if IsFatal(MarkerWriteError("/tmp", errors.New("read-only"))) {
		t.Error("expected marker write error to be non-fatal")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{
			name:     "app error",
			err:      ValidationError("test"),
			expected: CodeValidation,
		},
		{
			name:     "wrapped app error",
			err:      DatabaseError("test", errors.New("inner")),
			expected: CodeDatabase,
		},
		{
			name:     "standard error",
			err:      errors.New("standard"),
			expected: CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}
