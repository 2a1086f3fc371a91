// Package rerr defines the tagged error taxonomy (spec.md §7), shared
// between the internal treebitmap engine and the public facade so both
// sides can use errors.Is/errors.As against the same Kind values.
package rerr

import "fmt"

// Kind tags a StoreError.
type Kind uint8

const (
	// PrefixLengthInvalid: caller supplied len > AF::BITS.
	PrefixLengthInvalid Kind = iota
	// StoreNotReadyError: a replaceable pointer was observed null during
	// a window where it must not be; indicates a logic bug.
	StoreNotReadyError
	// PathSelectionOutdated: CAS on path_selections lost to a
	// concurrent writer.
	PathSelectionOutdated
	// NodeCreationMaxRetryError: exhausted the chain of node-sets
	// without room to store a new node.
	NodeCreationMaxRetryError
	// BestPathNotFound: no orderable record is currently active for the
	// prefix, or the prefix is not stored at all.
	BestPathNotFound
)

func (k Kind) String() string {
	switch k {
	case PrefixLengthInvalid:
		return "PrefixLengthInvalid"
	case StoreNotReadyError:
		return "StoreNotReadyError"
	case PathSelectionOutdated:
		return "PathSelectionOutdated"
	case NodeCreationMaxRetryError:
		return "NodeCreationMaxRetryError"
	case BestPathNotFound:
		return "BestPathNotFound"
	default:
		return "UnknownError"
	}
}

// StoreError is the error type every core operation returns on failure.
type StoreError struct {
	Kind   Kind
	Detail string
}

func (e *StoreError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is enables errors.Is(err, rerr.ErrBestPathNotFound) style comparisons:
// two StoreErrors match when their Kinds are equal, whatever their Detail.
func (e *StoreError) Is(target error) bool {
	other, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// New builds a StoreError of the given kind.
func New(kind Kind, detail string) *StoreError {
	return &StoreError{Kind: kind, Detail: detail}
}

// Sentinel values for errors.Is comparisons without detail text.
var (
	ErrPrefixLengthInvalid     = New(PrefixLengthInvalid, "")
	ErrStoreNotReady           = New(StoreNotReadyError, "")
	ErrPathSelectionOutdated   = New(PathSelectionOutdated, "")
	ErrNodeCreationMaxRetry    = New(NodeCreationMaxRetryError, "")
	ErrBestPathNotFound        = New(BestPathNotFound, "")
)
