// Package errcode provides layered error codes shared by every confres package.
// Error code format: MMBBBB (MM = module code, BBBB = business code)
package errcode

import (
	"fmt"
	"sort"
	"strings"
)

// LayeredError hierarchical error code
// Supports error chaining, dynamic messages and context data
type LayeredError struct {
	module string         // Module name (confres, source, ...)
	code   int            // Complete error code (MMBBBB, e.g., 110003)
	msgKey string         // Message key (e.g., "error.confres.validation")
	msg    string         // Default message
	data   map[string]any // context data
	cause  error          // Original error (error chain)
}

// New Create hierarchical error code
// moduleCode: Module code (10-99)
// businessCode: Business code (0001-9999)
func New(moduleCode, businessCode int, module, msgKey, msg string) *LayeredError {
	return &LayeredError{
		module: module,
		code:   moduleCode*10000 + businessCode,
		msgKey: msgKey,
		msg:    msg,
		data:   make(map[string]any),
	}
}

// Error implements the error interface
func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code gets error code
func (e *LayeredError) Code() int {
	return e.code
}

// Module gets module name
func (e *LayeredError) Module() string {
	return e.module
}

// MsgKey retrieves the message key
func (e *LayeredError) MsgKey() string {
	return e.msgKey
}

// Message gets the error message
func (e *LayeredError) Message() string {
	return e.msg
}

// Data retrieves context data
func (e *LayeredError) Data() map[string]any {
	return e.data
}

// Cause gets the original error
func (e *LayeredError) Cause() error {
	return e.cause
}

// Unwrap supports errors.Is / errors.As chains
func (e *LayeredError) Unwrap() error {
	return e.cause
}

// WithMsg replaces the message (returns a new instance)
func (e *LayeredError) WithMsg(msg string) *LayeredError {
	clone := *e
	clone.msg = msg
	return &clone
}

// WithMsgf formats a replacement message (returns a new instance)
func (e *LayeredError) WithMsgf(format string, args ...any) *LayeredError {
	clone := *e
	clone.msg = fmt.Sprintf(format, args...)
	return &clone
}

// WithData adds a single context entry (returns a new instance)
func (e *LayeredError) WithData(key string, value any) *LayeredError {
	clone := *e
	clone.data = e.cloneData()
	clone.data[key] = value
	return &clone
}

// WithFields adds context entries in batch (returns a new instance)
func (e *LayeredError) WithFields(fields map[string]any) *LayeredError {
	clone := *e
	clone.data = e.cloneData()
	for k, v := range fields {
		clone.data[k] = v
	}
	return &clone
}

// Wrap wraps the original error (returns a new instance)
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// Wrapf wraps the original error and formats the message (returns a new instance)
func (e *LayeredError) Wrapf(cause error, format string, args ...any) *LayeredError {
	if cause == nil {
		return e.WithMsgf(format, args...)
	}
	clone := *e
	clone.cause = cause
	clone.msg = fmt.Sprintf(format, args...)
	return &clone
}

// Is compares by code, so errors.Is(err, ErrXxx) matches derived instances
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

func (e *LayeredError) cloneData() map[string]any {
	data := make(map[string]any, len(e.data))
	for k, v := range e.data {
		data[k] = v
	}
	return data
}

// String returns a debug representation (data keys sorted)
func (e *LayeredError) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "LayeredError{code:%d, module:%s, msg:%s", e.code, e.module, e.msg)
	if len(e.data) > 0 {
		keys := make([]string, 0, len(e.data))
		for k := range e.data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(", data:{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s:%v", k, e.data[k])
		}
		b.WriteString("}")
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ", cause:%v", e.cause)
	}
	b.WriteString("}")
	return b.String()
}
