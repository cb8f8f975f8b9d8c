// Package errors provides typed errors for gitclaude
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrConfig indicates a configuration error
	ErrConfig ErrorType = iota
	// ErrRepository indicates the repository, HEAD or a commit could not be read
	ErrRepository
	// ErrState indicates unreadable or malformed rate-limit state
	ErrState
	// ErrDiff indicates a tree lookup or diff computation failure
	ErrDiff
	// ErrTemplateNotFound indicates no resolver produced the requested template
	ErrTemplateNotFound
	// ErrTemplateRender indicates a template parse or execution failure
	ErrTemplateRender
	// ErrAssistant indicates the assistant process failed
	ErrAssistant
	// ErrTimeout indicates a timeout occurred
	ErrTimeout
	// ErrValidation indicates an input validation error
	ErrValidation
	// ErrHook indicates a hook script could not be installed or removed
	ErrHook
	// ErrOutput indicates a response could not be delivered
	ErrOutput
)

// GitClaudeError is the base error type for all gitclaude errors
type GitClaudeError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns the error message
func (e *GitClaudeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", errorTypeString(e.Type), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", errorTypeString(e.Type), e.Message)
}

// Unwrap returns the underlying cause
func (e *GitClaudeError) Unwrap() error {
	return e.Cause
}

// New creates a new GitClaudeError
func New(errType ErrorType, message string, cause error) *GitClaudeError {
	return &GitClaudeError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *GitClaudeError) WithContext(key string, value interface{}) *GitClaudeError {
	e.Context[key] = value
	return e
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var gcErr *GitClaudeError
	if err == nil {
		return false
	}
	if errors.As(err, &gcErr) {
		return gcErr.Type == errType
	}
	return false
}

// ShouldAbortHook returns true if the error should fail the git operation
// that triggered the hook. Only problems the user has to fix abort; anything
// else lets the commit or push go through with degraded output.
func ShouldAbortHook(err error) bool {
	var gcErr *GitClaudeError
	if !errors.As(err, &gcErr) {
		return false
	}

	switch gcErr.Type {
	case ErrConfig, ErrValidation:
		return true
	default:
		return false
	}
}

func errorTypeString(et ErrorType) string {
	switch et {
	case ErrConfig:
		return "CONFIG"
	case ErrRepository:
		return "REPOSITORY"
	case ErrState:
		return "STATE"
	case ErrDiff:
		return "DIFF"
	case ErrTemplateNotFound:
		return "TEMPLATE_NOT_FOUND"
	case ErrTemplateRender:
		return "TEMPLATE_RENDER"
	case ErrAssistant:
		return "ASSISTANT"
	case ErrTimeout:
		return "TIMEOUT"
	case ErrValidation:
		return "VALIDATION"
	case ErrHook:
		return "HOOK"
	case ErrOutput:
		return "OUTPUT"
	default:
		return "UNKNOWN"
	}
}

// Convenience functions for common errors

// ConfigError creates a configuration error
func ConfigError(message string, cause error) *GitClaudeError {
	return New(ErrConfig, message, cause)
}

// RepositoryError creates a repository access error
func RepositoryError(message string, cause error) *GitClaudeError {
	return New(ErrRepository, message, cause)
}

// StateError creates a rate-limit state error
func StateError(message string, cause error) *GitClaudeError {
	return New(ErrState, message, cause)
}

// DiffError creates a diff computation error
func DiffError(message string, cause error) *GitClaudeError {
	return New(ErrDiff, message, cause)
}

// TemplateNotFoundError creates a not-found error naming the template
func TemplateNotFoundError(name string) *GitClaudeError {
	return New(ErrTemplateNotFound, fmt.Sprintf("template %q not found", name), nil).
		WithContext("template", name)
}

// TemplateRenderError creates a template rendering error
func TemplateRenderError(message string, cause error) *GitClaudeError {
	return New(ErrTemplateRender, message, cause)
}

// AssistantError creates an assistant execution error
func AssistantError(message string, cause error) *GitClaudeError {
	return New(ErrAssistant, message, cause)
}

// ValidationError creates a validation error
func ValidationError(message string, cause error) *GitClaudeError {
	return New(ErrValidation, message, cause)
}

// TimeoutError creates a timeout error
func TimeoutError(message string, cause error) *GitClaudeError {
	return New(ErrTimeout, message, cause)
}

// HookError creates a hook installation error
func HookError(message string, cause error) *GitClaudeError {
	return New(ErrHook, message, cause)
}

// OutputError creates an output delivery error
func OutputError(message string, cause error) *GitClaudeError {
	return New(ErrOutput, message, cause)
}
