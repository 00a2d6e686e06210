package cnxepub

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the cnxepub package.
var (
	// ErrIdentityConflict indicates two nodes in one navigation tree
	// resolved to the same identifier, or a document-pointer chain
	// formed a reference cycle. Fatal: identity problems corrupt the
	// navigation contract.
	ErrIdentityConflict = errors.New("cnxepub: identity conflict")

	// ErrAmbiguousComposition indicates a binder mixes multiple
	// top-level documents without a clarifying navigation entry, so no
	// single composite document can be derived from it.
	ErrAmbiguousComposition = errors.New("cnxepub: ambiguous composition")

	// ErrUnresolvedResource indicates a symbolic resource reference has
	// no matching Resource in the current tree. Fatal during package
	// export; downgraded to a warning during collation link-rewriting.
	ErrUnresolvedResource = errors.New("cnxepub: unresolved resource reference")

	// ErrMissingNavigation indicates a package has no navigation item.
	ErrMissingNavigation = errors.New("cnxepub: package has no navigation item")

	// ErrAdditionalNavigation indicates a package has more than one
	// navigation item.
	ErrAdditionalNavigation = errors.New("cnxepub: package has more than one navigation item")

	// ErrMissingMetadata indicates a required metadata value (title,
	// license) could not be found on a document.
	ErrMissingMetadata = errors.New("cnxepub: required metadata missing")

	// ErrItemNotFound indicates the named item does not exist in the
	// package.
	ErrItemNotFound = errors.New("cnxepub: item not found in package")
)

// CollationError reports a document whose content region could not be
// merged. Collation never partially emits a document: on a
// document-level fatal error the whole collation fails with this error.
type CollationError struct {
	// DocumentID is the resolved id of the offending document.
	DocumentID string

	// Err is the underlying cause.
	Err error
}

func (e *CollationError) Error() string {
	return fmt.Sprintf("cnxepub: collate document %q: %v", e.DocumentID, e.Err)
}

func (e *CollationError) Unwrap() error { return e.Err }
