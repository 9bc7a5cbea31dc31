package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors
type ErrorCode string

const (
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeConfigFormat     ErrorCode = "CONFIG_FORMAT_ERROR"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION_ERROR"
	ErrCodeMeasurement      ErrorCode = "MEASUREMENT_ERROR"
	ErrCodeExport           ErrorCode = "EXPORT_ERROR"
	ErrCodeParseInput       ErrorCode = "PARSE_INPUT_ERROR"
	ErrCodeFFmpeg           ErrorCode = "FFMPEG_ERROR"
)

// GainError is the base structured error
type GainError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *GainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *GainError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a conflicting or malformed gain request
type ValidationError struct {
	GainError
	Field string
	Value interface{}
}

func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		GainError: GainError{
			Code:    ErrCodeValidation,
			Message: message,
		},
		Field: field,
		Value: value,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] field=%s value=%v: %s", e.Code, e.Field, e.Value, e.Message)
}

// ConfigError represents a batch config failure. The code distinguishes
// malformed structure (format) from well-formed but invalid content
// (validation). Either kind is fatal to the whole run.
type ConfigError struct {
	GainError
	Path string
	Line int // 0 when not attributable to a single line
}

func NewConfigFormatError(path string, line int, message string, cause error) *ConfigError {
	return &ConfigError{
		GainError: GainError{
			Code:    ErrCodeConfigFormat,
			Message: message,
			Cause:   cause,
		},
		Path: path,
		Line: line,
	}
}

func NewConfigValidationError(path string, line int, message string) *ConfigError {
	return &ConfigError{
		GainError: GainError{
			Code:    ErrCodeConfigValidation,
			Message: message,
		},
		Path: path,
		Line: line,
	}
}

func (e *ConfigError) Error() string {
	base := e.GainError.Error()
	if e.Line > 0 {
		return fmt.Sprintf("%s (config=%s, line=%d)", base, e.Path, e.Line)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s (config=%s)", base, e.Path)
	}
	return base
}

// MeasurementError represents a loudness measurement failure for one file
type MeasurementError struct {
	GainError
	File string
}

func NewMeasurementError(file, message string, cause error) *MeasurementError {
	return &MeasurementError{
		GainError: GainError{
			Code:    ErrCodeMeasurement,
			Message: message,
			Cause:   cause,
		},
		File: file,
	}
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("%s (file=%s)", e.GainError.Error(), e.File)
}

// ExportError represents an export failure for one file
type ExportError struct {
	GainError
	File   string
	Format string
}

func NewExportError(file, format, message string, cause error) *ExportError {
	return &ExportError{
		GainError: GainError{
			Code:    ErrCodeExport,
			Message: message,
			Cause:   cause,
		},
		File:   file,
		Format: format,
	}
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s (file=%s, format=%s)", e.GainError.Error(), e.File, e.Format)
}

// ParseInputError represents malformed interactive operator input
type ParseInputError struct {
	GainError
	Input string
}

func NewParseInputError(input, message string) *ParseInputError {
	return &ParseInputError{
		GainError: GainError{
			Code:    ErrCodeParseInput,
			Message: message,
		},
		Input: input,
	}
}

func (e *ParseInputError) Error() string {
	return fmt.Sprintf("[%s] input=%q: %s", e.Code, e.Input, e.Message)
}

// FFmpegError represents an FFmpeg execution failure
type FFmpegError struct {
	GainError
	Args     []string
	ExitCode int
	Stderr   string
}

func NewFFmpegError(message string, args []string, exitCode int, stderr string, cause error) *FFmpegError {
	return &FFmpegError{
		GainError: GainError{
			Code:    ErrCodeFFmpeg,
			Message: message,
			Cause:   cause,
		},
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("[%s] %s (exit=%d, stderr=%q): %v",
		e.Code, e.Message, e.ExitCode, truncate(e.Stderr, 200), e.Cause)
}

// Is enables errors.Is checks
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As enables errors.As checks
func As[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
