package ingest

import "errors"

// Error definitions for the ingest package.
var (
	ErrNoRecords       = errors.New("no student records parsed from roster")
	ErrNoDocuments     = errors.New("no documents found in data directory")
	ErrNoChunks        = errors.New("documents produced no chunks")
	ErrUnsupportedFile = errors.New("unsupported file type")
)
