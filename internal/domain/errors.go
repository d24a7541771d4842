package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can decide between degrading,
// retrying and rejecting without matching on message text.
type ErrorKind string

const (
	KindConnection   ErrorKind = "connection_failure"
	KindRetrieval    ErrorKind = "retrieval_failure"
	KindGeneration   ErrorKind = "generation_failure"
	KindValidation   ErrorKind = "validation_failure"
	KindKnowledgeGap ErrorKind = "knowledge_gap"
)

// Error carries a kind, the operation that failed and the cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the Err* sentinels below work
// with errors.Is regardless of Op and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && t.Op == "" && t.Err == nil
}

// NewError wraps err with a kind and operation name.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

var (
	ErrConnection   = &Error{Kind: KindConnection}
	ErrRetrieval    = &Error{Kind: KindRetrieval}
	ErrGeneration   = &Error{Kind: KindGeneration}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrKnowledgeGap = &Error{Kind: KindKnowledgeGap}

	// ErrEmptyGeneration is a generation failure where the provider answered with no text.
	ErrEmptyGeneration = NewError(KindGeneration, "generate", errors.New("empty output from language model"))
)

// KindOf returns the kind of the outermost *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
