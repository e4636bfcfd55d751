package repositories

import "errors"

var (
	// ErrNotFound is returned by lookups that require a matching row.
	ErrNotFound = errors.New("record not found")

	// ErrMultipleResults is returned by SingleOrNone when more than one row matches.
	ErrMultipleResults = errors.New("query matched more than one record")
)
