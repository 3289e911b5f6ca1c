// Package forensicerr defines the error taxonomy spec.md §7 names (kinds,
// not identifiers) and the propagation policy attached to each kind. The
// Processor maps every error it surfaces to one of these so
// model.ProcessingError.Kind is always one of a known, stable set.
//
// Grounded on the teacher's fmt.Errorf("...: %w", ...) wrapping
// conventions (no custom error package exists in the teacher repo; this
// package exists because the spec calls out an explicit taxonomy the
// teacher's ad-hoc wrapping does not provide).
package forensicerr

import "fmt"

// Kind is one of the six buckets spec.md §7 enumerates.
type Kind string

const (
	KindInput     Kind = "input"
	KindProfile   Kind = "profile"
	KindDetection Kind = "detection"
	KindRedaction Kind = "redaction"
	KindCrypto    Kind = "crypto"
	KindResource  Kind = "resource"
)

// Surfaces reports whether an error of this kind is always surfaced to the
// caller rather than recovered locally (spec.md §7 propagation policy).
// Detection and Redaction errors are recoverable by design (dropped
// detection, degraded redaction) and so are not always-surfaced; whether
// one surfaces in a given run depends on strict_mode, which this function
// does not know about.
func (k Kind) Surfaces() bool {
	switch k {
	case KindInput, KindProfile, KindCrypto:
		return true
	default:
		return false
	}
}

// Error is a taxonomy-tagged error, optionally attributable to a page.
type Error struct {
	Kind      Kind
	PageIndex *int
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.PageIndex != nil {
		return fmt.Sprintf("%s (page %d): %s", e.Kind, *e.PageIndex, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a document-level (no page index) Error of kind k.
func New(k Kind, message string, cause error) *Error {
	return &Error{Kind: k, Message: message, Cause: cause}
}

// OnPage builds a page-attributed Error of kind k.
func OnPage(k Kind, pageIndex int, message string, cause error) *Error {
	return &Error{Kind: k, PageIndex: &pageIndex, Message: message, Cause: cause}
}
