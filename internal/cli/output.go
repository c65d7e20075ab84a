package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // A call reverted, a deployment or a scenario failed
	ExitCommandError = 2 // Bad flags, unreadable files, nothing deployed, unknown snapshot
)

// Error codes reported in CLI error output.
const (
	ErrCodeCommand    = "E_COMMAND"     // any ExitCommandError
	ErrCodeFailed     = "E_FAILED"      // any other ExitFailure
	ErrCodeCallFailed = "E_CALL_FAILED" // call reverted or was rejected by the chain
	ErrCodeTestFailed = "E_TEST_FAILED" // one or more scenarios failed
)

// ExitError carries the process exit code of a failed command and,
// optionally, the error code it is reported under.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Kind    string // error code; derived from Code when empty
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// callFailedError reports a reverted or rejected call.
func callFailedError(contract, method, failure string) *ExitError {
	return &ExitError{
		Code:    ExitFailure,
		Kind:    ErrCodeCallFailed,
		Message: fmt.Sprintf("%s.%s failed: %s", contract, method, failure),
	}
}

// testFailedError reports failed scenarios.
func testFailedError(failed int) *ExitError {
	return &ExitError{
		Code:    ExitFailure,
		Kind:    ErrCodeTestFailed,
		Message: fmt.Sprintf("%d scenario(s) failed", failed),
	}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode maps an error to the code reported in CLI error output.
func ErrorCode(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Kind != "" {
		return exitErr.Kind
	}
	if GetExitCode(err) == ExitCommandError {
		return ErrCodeCommand
	}
	return ErrCodeFailed
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose and diagnostic output; defaults to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload, or the partial result of a failure
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // one of the ErrCode constants
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// newResponse builds the JSON envelope for a command result. A non-nil
// failure marks the response as an error while keeping data, so scripts can
// read the trace of a reverted call or the scenarios of a failed run.
func newResponse(data any, failure *ExitError, details any) CLIResponse {
	if failure == nil {
		return CLIResponse{Status: "ok", Data: data}
	}
	return CLIResponse{
		Status: "error",
		Data:   data,
		Error: &CLIError{
			Code:    ErrorCode(failure),
			Message: failure.Message,
			Details: details,
		},
	}
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(newResponse(data, nil, nil))
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog writes a diagnostic line when verbose mode is on. It goes to
// ErrWriter so JSON on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
