package rotonda

import "github.com/nlnetlabs/rotonda-store/internal/rerr"

// ErrorKind tags a StoreError (spec.md §7).
type ErrorKind = rerr.Kind

const (
	PrefixLengthInvalid       = rerr.PrefixLengthInvalid
	StoreNotReadyError        = rerr.StoreNotReadyError
	PathSelectionOutdated     = rerr.PathSelectionOutdated
	NodeCreationMaxRetryError = rerr.NodeCreationMaxRetryError
	BestPathNotFound          = rerr.BestPathNotFound
)

// StoreError is returned by every operation that can fail; compare with
// errors.Is against the sentinel values below.
type StoreError = rerr.StoreError

var (
	ErrPrefixLengthInvalid     = rerr.ErrPrefixLengthInvalid
	ErrStoreNotReady           = rerr.ErrStoreNotReady
	ErrPathSelectionOutdated   = rerr.ErrPathSelectionOutdated
	ErrNodeCreationMaxRetry    = rerr.ErrNodeCreationMaxRetry
	ErrBestPathNotFound        = rerr.ErrBestPathNotFound
)
