package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInputMissing        = errors.New("required input missing")
	ErrInvalidInput        = errors.New("invalid input")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrProviderCallFailed  = errors.New("provider call failed")
	// ErrDialogueUnavailable means not a single dialogue line produced audio.
	ErrDialogueUnavailable = errors.New("no dialogue audio could be produced")
	ErrPersistence         = errors.New("persistence failed")
	ErrBusy                = errors.New("another phase is already running")
	ErrNothingToPreview    = errors.New("nothing to preview")
	ErrInvalidPhase        = errors.New("invalid phase")
)

// PhaseError wraps the failure of one phase run. The store is untouched when
// one is returned.
type PhaseError struct {
	Phase int
	Name  string
	Err   error
}

func (e *PhaseError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("phase %d (%s) failed: %v", e.Phase, e.Name, e.Err)
	}
	return fmt.Sprintf("phase %d failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

type ProviderKind string

const (
	KindAuth      ProviderKind = "auth"
	KindRateLimit ProviderKind = "rate_limit"
	KindServer    ProviderKind = "server"
	KindNetwork   ProviderKind = "network"
	KindDecode    ProviderKind = "decode"
)

type ProviderError struct {
	Provider string
	Kind     ProviderKind
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s (status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Is(target error) bool { return target == ErrProviderCallFailed }

// KindForStatus maps a non-2xx HTTP status to a provider error kind.
func KindForStatus(status int) ProviderKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimit
	default:
		return KindServer
	}
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// IsProviderKind reports whether err carries a ProviderError of kind k.
func IsProviderKind(err error, k ProviderKind) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == k
}
