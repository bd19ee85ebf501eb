// Package stageerr defines the error-kind taxonomy shared across every
// analysis stage. Stages never unwind the pipeline: a failing stage wraps
// its cause in a *StageError and the caller decides whether to degrade
// gracefully or fail the whole request.
package stageerr

import "fmt"

// Kind is one of the fixed error categories the pipeline distinguishes.
type Kind string

const (
	InvalidAddress    Kind = "InvalidAddress"
	RpcTransport      Kind = "RpcTransport"
	RpcRateLimited    Kind = "RpcRateLimited"
	RpcNonRetryable   Kind = "RpcNonRetryable"
	ParseMalformed    Kind = "ParseMalformed"
	DegradedData      Kind = "DegradedData"
	GraphInsufficient Kind = "GraphInsufficient"
	AnalysisStageError Kind = "AnalysisStageError"
	EngineFallback    Kind = "EngineFallback"
	Deadline          Kind = "Deadline"
	Unknown           Kind = "Unknown"
)

// StageError wraps an underlying cause with a Kind and the stage name that
// produced it.
type StageError struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// New wraps err as a StageError of the given kind and stage.
func New(kind Kind, stage string, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

// Retryable reports whether a RpcTransport/RpcRateLimited/Deadline error
// warrants falling back to another endpoint rather than failing outright.
func Retryable(kind Kind) bool {
	switch kind {
	case RpcTransport, RpcRateLimited, Deadline:
		return true
	default:
		return false
	}
}
