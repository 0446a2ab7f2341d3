package bookmarker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidBookmark is returned by Pager when a client supplied bookmark
	// fails validation. Callers usually answer it with a client error.
	ErrInvalidBookmark = errors.New("invalid bookmark")
	// ErrArityMismatch is returned when a bookmark does not have one value
	// per column of the SortKey.
	ErrArityMismatch = errors.New("bookmark arity mismatch")
)

// UnresolvedColumnError is a configuration error: a column spec names a
// column the model or the catalog does not know.
type UnresolvedColumnError struct {
	Table   string
	Column  string
	Closest string
}

func (e *UnresolvedColumnError) Error() string {
	msg := fmt.Sprintf("unresolved column '%s' on table '%s'", e.Column, e.Table)
	if e.Closest != "" {
		msg += fmt.Sprintf(". closest: '%s'", e.Closest)
	}

	return msg
}

// UnresolvedAssociationError is a configuration error: an association hop
// matches neither a table nor a declared relationship.
type UnresolvedAssociationError struct {
	Model       string
	Association string
	Path        []string
	Reason      string
}

func (e *UnresolvedAssociationError) Error() string {
	msg := fmt.Sprintf("unresolved association '%s' on model '%s'", e.Association, e.Model)
	if len(e.Path) > 0 {
		msg += fmt.Sprintf(" (path '%s')", strings.Join(e.Path, "."))
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}
