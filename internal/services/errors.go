package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify gateway failures. Gateways wrap their
// errors with one of these so the workflow manager can choose between retry,
// immediate failure, and startup abort without inspecting collaborator detail.
var (
	// ErrTransient marks retryable failures: network hiccups, timeouts,
	// temporarily unavailable collaborators.
	ErrTransient = errors.New("transient gateway error")
	// ErrPermanentInput marks failures inherent to the input itself:
	// corrupt files, unsupported encodings. Retrying cannot fix these.
	ErrPermanentInput = errors.New("permanent input error")
	// ErrConfiguration marks startup-time misconfiguration: unreachable
	// required collaborators, missing binaries.
	ErrConfiguration = errors.New("configuration error")
	// ErrAlreadyInProgress signals lease contention, not a processing failure.
	ErrAlreadyInProgress = errors.New("already in progress")
)

// Failure kinds persisted into ledger error detail.
const (
	KindTransient        = "transient"
	KindPermanentFailure = "permanent_failure"
	KindRetriesExhausted = "retries_exhausted"
	KindConfiguration    = "configuration"
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPermanent reports whether the error is inherent to the input and must not
// be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanentInput)
}

// IsTransient reports whether the error is retry-eligible. Context deadline
// expiry counts as transient: a bounded gateway timeout says nothing about
// the input. Unclassified errors are treated as transient so a collaborator
// bug cannot permanently fail a healthy file.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrPermanentInput) && !errors.Is(err, ErrConfiguration)
}

// FailureKind maps a stage error to the error kind the ledger should record.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrPermanentInput):
		return KindPermanentFailure
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindTransient
	}
}

// Details strips the sentinel prefix from a wrapped error for display.
func Details(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []error{ErrTransient, ErrPermanentInput, ErrConfiguration, ErrAlreadyInProgress} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
