package models

import (
	"encoding/json"

	"github.com/Masterminds/semver/v3"
)

// Manifest is a firmware manifest resolved for a device and release channel.
//
// Fields:
//
//	Channel: The release track the manifest was read from (e.g. "stable").
//	Body:    The manifest file bytes, served unchanged.
//	Digest:  SHA-256 of Body, used as a strong ETag.
//	Version: Parsed "version" field, nil if absent or not semver.
type Manifest struct {
	DeviceID string
	Channel  string
	Body     json.RawMessage
	Digest   string
	Version  *semver.Version
}

// ManifestHeader is the subset of a manifest the hub reads.
type ManifestHeader struct {
	Version string `json:"version"`
}
