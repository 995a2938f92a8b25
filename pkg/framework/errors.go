package framework

import (
	"fmt"
	"strings"
)

// RunnableError is the error a Runnable stopped with.
type RunnableError struct {
	Name string
	Err  error
}

func (e *RunnableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// Unwrap returns the original error.
func (e *RunnableError) Unwrap() error {
	return e.Err
}

// StopErrors collects the errors of stopped Runnables in stop order.
type StopErrors []error

func (e StopErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d runnables failed:", len(e))
	for _, err := range e {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap exposes every error to errors.Is and errors.As.
func (e StopErrors) Unwrap() []error {
	return e
}

// Err returns nil when nothing failed.
func (e StopErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
