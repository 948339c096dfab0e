package services

import "errors"

// Errors surfaced to callers of the hub.
var (
	ErrUnauthorized     = errors.New("invalid API key")
	ErrInvalidPayload   = errors.New("invalid JSON")
	ErrMissingDeviceID  = errors.New("deviceId is required")
	ErrManifestNotFound = errors.New("manifest not found")
	ErrManifestError    = errors.New("manifest error")
)
