package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrAuth,
		ErrQuery,
		ErrParse,
		ErrDispatch,
		ErrExport,
		ErrExec,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in .patchctl.yaml",
			suggestion: "Check your configuration file syntax",
		},
		{
			name:       "auth error",
			code:       ErrAuth,
			message:    "Not logged in to Azure",
			suggestion: "Run 'az login' first",
		},
		{
			name:       "query error",
			code:       ErrQuery,
			message:    "Resource Graph query failed",
			suggestion: "Run 'patchctl doctor'",
		},
		{
			name:       "dispatch error",
			code:       ErrDispatch,
			message:    "az vm restart exited with code 1",
			suggestion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name:          "basic error formatting",
			err:           New(ErrConfig, "Invalid configuration", "Check .patchctl.yaml syntax"),
			expectedParts: []string{"Invalid configuration", "Check .patchctl.yaml syntax"},
		},
		{
			name:          "error with failure symbol",
			err:           New(ErrAuth, "Login required", "Run az login"),
			expectedParts: []string{"✗", "Login required"},
		},
		{
			name:          "error without suggestion",
			err:           New(ErrExec, "Command failed", ""),
			expectedParts: []string{"Command failed"},
			notExpected:   []string{"\n\n  \n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()
			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("exec: \"az\": executable file not found in $PATH")
	wrapped := Wrap(cause, "Couldn't run az")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrExec, wrapped.Code, "Wrap should default to ErrExec code")
	assert.Equal(t, cause, wrapped.Cause)
	assert.Contains(t, wrapped.Error(), "executable file not found")
}

func TestWrapWithCode_ErrorsIsAndAs(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := WrapWithCode(cause, ErrQuery, "Query failed", "Retry later")

	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, cause, wrapped.Unwrap())

	var pcErr *Error
	require.True(t, errors.As(fmt.Errorf("outer: %w", wrapped), &pcErr))
	assert.Equal(t, ErrQuery, pcErr.Code)
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrAuth))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("AADSTS700082: refresh token expired"),
		ErrAuth,
		"Azure credentials are not usable",
		"Run: az login",
	)

	lines := strings.Split(err.Error(), "\n")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "✗"))
	assert.Contains(t, lines[0], "Azure credentials are not usable")
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOk   bool
	}{
		{"ExitError returns code", NewExitError(1), 1, true},
		{"ExitError with zero", NewExitError(0), 0, true},
		{"wrapped ExitError", fmt.Errorf("live: %w", NewExitError(1)), 1, true},
		{"standard error", errors.New("standard error"), 0, false},
		{"nil error", nil, 0, false},
		{"structured Error", New(ErrExec, "test", ""), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := GetExitCode(tt.err)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "exit code 137", NewExitError(137).Error())
}
