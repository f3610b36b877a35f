package domain

import (
	"errors"
	"fmt"
)

// ErrWorkflowNotFound is returned when a workflow ID cannot be found in the store.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrPoolNotFound is returned by a chain adapter when no pool exists between two tokens.
var ErrPoolNotFound = errors.New("pool not found")

// ErrRunNotFound is returned when a run ID is unknown to a run registry or sink.
var ErrRunNotFound = errors.New("run not found")

// ErrorCategory groups failures for user presentation and retry advice.
type ErrorCategory string

const (
	ErrorNetwork    ErrorCategory = "network"
	ErrorBlockchain ErrorCategory = "blockchain"
	ErrorConfig     ErrorCategory = "config"
	ErrorUnknown    ErrorCategory = "unknown"
)

// ParsedError is a categorized, user-facing failure. Retryable is advisory:
// the engine itself never retries, the flag is surfaced to the caller/UI.
type ParsedError struct {
	Category  ErrorCategory `json:"category"`
	Retryable bool          `json:"retryable"`
	Message   string        `json:"message"`
	Detail    string        `json:"detail,omitempty"`
}

func (e *ParsedError) Error() string {
	return e.Message
}

// ChainError is a structured failure attached by a chain adapter. Code is a
// machine-readable identifier (e.g. "INSUFFICIENT_FUNDS"); Revert carries an
// on-chain revert reason when one was decoded.
type ChainError struct {
	Code   string
	Revert string
	Msg    string
}

func (e *ChainError) Error() string {
	if e.Revert != "" {
		return fmt.Sprintf("%s: reverted: %s", e.Msg, e.Revert)
	}
	return e.Msg
}

// ResolutionError reports a failed amount resolution. It names the descriptor
// kind and, once the dispatcher has attached it, the offending config field.
type ResolutionError struct {
	Kind   string // the AmountDescriptor type that failed
	Field  string // the node config field being resolved, if known
	Reason string
}

func (e *ResolutionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("cannot resolve %s amount for %q: %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("cannot resolve %s amount: %s", e.Kind, e.Reason)
}

// GuardError reports a guard node halting the chain on purpose.
type GuardError struct {
	NodeID    string
	Field     string
	Value     string
	Threshold string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("guard %s tripped: %s=%s exceeds ceiling %s", e.NodeID, e.Field, e.Value, e.Threshold)
}
