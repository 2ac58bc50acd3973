package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrAssetNotFound indicates the requested asset does not exist
	ErrAssetNotFound = errors.New("asset not found")

	// ErrNotConfigured indicates the client has no server host or API key yet
	ErrNotConfigured = errors.New("server connection is not configured")
)
