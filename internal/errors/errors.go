// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrDegenerateLattice = errors.New("degenerate lattice")
	ErrSyntax            = errors.New("payoff syntax error")
	ErrEvaluation        = errors.New("payoff evaluation error")
	ErrCancelled         = errors.New("pricing cancelled")
	ErrConfigInvalid     = errors.New("invalid configuration")
)

// ParameterError reports a violated input invariant. It is never retried:
// the same inputs always fail the same way.
type ParameterError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// NewParameterError creates a new ParameterError.
func NewParameterError(field string, value interface{}, message string) *ParameterError {
	return &ParameterError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// LatticeError reports an arbitrage-inconsistent or zero-width binomial
// tree. The offending risk-neutral probability is carried for diagnostics.
type LatticeError struct {
	Probability float64
	Message     string
}

func (e *LatticeError) Error() string {
	return fmt.Sprintf("degenerate lattice: %s (p=%g)", e.Message, e.Probability)
}

func (e *LatticeError) Unwrap() error {
	return ErrDegenerateLattice
}

// NewLatticeError creates a new LatticeError.
func NewLatticeError(probability float64, message string) *LatticeError {
	return &LatticeError{
		Probability: probability,
		Message:     message,
	}
}

// SyntaxError reports a malformed or non-whitelisted payoff expression.
// Pos is the zero-based byte offset of the offending token.
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// NewSyntaxError creates a new SyntaxError.
func NewSyntaxError(pos int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// EvalError reports a runtime failure while evaluating a compiled payoff:
// a type mismatch or a math domain error.
type EvalError struct {
	Pos     int
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluation error at offset %d: %s", e.Pos, e.Message)
}

func (e *EvalError) Unwrap() error {
	return ErrEvaluation
}

// NewEvalError creates a new EvalError.
func NewEvalError(pos int, format string, args ...interface{}) *EvalError {
	return &EvalError{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
