package model

import "fmt"

// ParseError represents NF-e XML parsing errors with layout context
type ParseError struct {
	Layout  Layout
	Field   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Layout, e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Layout, e.Field, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a new parse error
func NewParseError(layout Layout, field, message string, cause error) *ParseError {
	return &ParseError{
		Layout:  layout,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ToolError is returned when a tool name is not in the catalogue
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q: %s", e.Tool, e.Message)
}

// NewToolError creates a new tool error
func NewToolError(tool, message string) *ToolError {
	return &ToolError{Tool: tool, Message: message}
}

// ArgumentError represents malformed tool arguments: undecodable JSON,
// a missing required field or an enum violation.
type ArgumentError struct {
	Tool    string
	Field   string
	Message string
	Cause   error
}

func (e *ArgumentError) Error() string {
	msg := fmt.Sprintf("invalid arguments for %s", e.Tool)
	if e.Field != "" {
		msg += fmt.Sprintf(" on %s", e.Field)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(" (%v)", e.Cause)
	}
	return msg
}

func (e *ArgumentError) Unwrap() error {
	return e.Cause
}

// NewArgumentError creates a new argument error
func NewArgumentError(tool, field, message string, cause error) *ArgumentError {
	return &ArgumentError{
		Tool:    tool,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// RegistryError represents a failed CNPJ registry consultation
type RegistryError struct {
	Status  int
	Message string
	Cause   error
}

func (e *RegistryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("registry lookup failed [%d]: %s (%v)", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("registry lookup failed [%d]: %s", e.Status, e.Message)
}

func (e *RegistryError) Unwrap() error {
	return e.Cause
}

// NewRegistryError creates a new registry error
func NewRegistryError(status int, message string, cause error) *RegistryError {
	return &RegistryError{
		Status:  status,
		Message: message,
		Cause:   cause,
	}
}
