// Package errors implements the error taxonomy for the dataset pipeline,
// with classification and handling behavior per error kind.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies pipeline errors. Each kind has defined behavior for
// scope (what unit of work it halts) and recovery policy.
type ErrorKind int

const (
	// KindConfiguration indicates a malformed or missing profile or template
	// definition. Fatal: aborts before any generation work starts.
	KindConfiguration ErrorKind = iota

	// KindNotFound indicates an unknown profile name or template type.
	// Fatal for the requested item.
	KindNotFound

	// KindStoreUnavailable indicates the knowledge store backing file is
	// missing or corrupt. Fatal for the run, recoverable at the process
	// level once the store is restored.
	KindStoreUnavailable

	// KindBinding indicates a single sample could not be rendered because a
	// declared template variable had no resolvable value. Recovered locally:
	// the sample is skipped and counted.
	KindBinding

	// KindFormat indicates an unsupported serialization format. Fatal,
	// detected before any file is written.
	KindFormat

	// KindExternal indicates a failure in the external review bridge.
	// Retryable with backoff.
	KindExternal
)

var kindNames = map[ErrorKind]string{
	KindConfiguration:    "configuration",
	KindNotFound:         "not_found",
	KindStoreUnavailable: "store_unavailable",
	KindBinding:          "variable_binding",
	KindFormat:           "unsupported_format",
	KindExternal:         "external",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindBehavior defines the handling behavior for an error kind.
type KindBehavior struct {
	// HaltsRun indicates whether the whole generation run must stop.
	HaltsRun bool

	// SkipAndCount indicates the error is swallowed into the per-batch
	// skip counter instead of propagating.
	SkipAndCount bool

	// ShouldRetry indicates whether the operation may be retried.
	ShouldRetry bool

	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int

	// BaseBackoff is the initial backoff duration between retries.
	BaseBackoff time.Duration
}

// DefaultBehaviors returns the default behavior for each error kind.
func DefaultBehaviors() map[ErrorKind]KindBehavior {
	return map[ErrorKind]KindBehavior{
		KindConfiguration:    {HaltsRun: true},
		KindNotFound:         {HaltsRun: true},
		KindStoreUnavailable: {HaltsRun: true},
		KindBinding:          {SkipAndCount: true},
		KindFormat:           {HaltsRun: true},
		KindExternal: {
			ShouldRetry: true,
			MaxRetries:  3,
			BaseBackoff: 500 * time.Millisecond,
		},
	}
}

// PipelineError wraps an error with kind classification and context.
type PipelineError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
	Context    map[string]string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *PipelineError) Unwrap() error {
	return e.Underlying
}

// Is matches any PipelineError of the same kind.
func (e *PipelineError) Is(target error) bool {
	var pe *PipelineError
	if errors.As(target, &pe) {
		return e.Kind == pe.Kind
	}
	return false
}

// New creates a PipelineError with the given kind and message.
func New(kind ErrorKind, message string) *PipelineError {
	return &PipelineError{
		Kind:    kind,
		Message: message,
		Context: make(map[string]string),
	}
}

// Newf creates a PipelineError with a formatted message.
func Newf(kind ErrorKind, format string, args ...any) *PipelineError {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithContext adds a context key-value pair to the error.
func (e *PipelineError) WithContext(key, value string) *PipelineError {
	e.Context[key] = value
	return e
}

// Wrap wraps an error with a kind classification. An already-classified
// error keeps its original kind.
func Wrap(kind ErrorKind, message string, err error) error {
	if err == nil {
		return nil
	}

	var pe *PipelineError
	if errors.As(err, &pe) {
		return &PipelineError{
			Kind:       pe.Kind,
			Message:    message,
			Underlying: err,
			Context:    pe.Context,
		}
	}

	return &PipelineError{
		Kind:       kind,
		Message:    message,
		Underlying: err,
		Context:    make(map[string]string),
	}
}

// GetKind extracts the ErrorKind from an error, defaulting to Configuration.
func GetKind(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindConfiguration
}

// GetBehavior returns the behavior for an error's kind.
func GetBehavior(err error) KindBehavior {
	return DefaultBehaviors()[GetKind(err)]
}

// IsSkippable reports whether an error follows the skip-and-count policy.
func IsSkippable(err error) bool {
	return GetBehavior(err).SkipAndCount
}

// IsRetryable reports whether an error should be retried.
func IsRetryable(err error) bool {
	return GetBehavior(err).ShouldRetry
}

// Sentinel errors for each kind.
var (
	ErrProfileNotFound     = New(KindNotFound, "profile not found")
	ErrUnknownTemplateType = New(KindNotFound, "unknown template type")
	ErrTemplateSchema      = New(KindConfiguration, "template schema invalid")
	ErrStoreUnavailable    = New(KindStoreUnavailable, "knowledge store unavailable")
	ErrVariableBinding     = New(KindBinding, "template variable unresolved")
	ErrUnsupportedFormat   = New(KindFormat, "unsupported output format")
	ErrBridgeFailure       = New(KindExternal, "review bridge failure")
)
