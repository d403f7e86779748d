package store

import "errors"

// Error definitions for the store package.
var (
	ErrNotFound          = errors.New("record not found")
	ErrUnsupportedURL    = errors.New("unsupported database url")
	ErrNoRecordsToInsert = errors.New("no records to insert")
)
