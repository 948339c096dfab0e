package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/benmeehan/rov-hub/internal/constants"
	"github.com/benmeehan/rov-hub/internal/metrics"
	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/benmeehan/rov-hub/pkg/file"
	"github.com/rs/zerolog"
)

var channelName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ManifestService serves firmware manifests from a read-only directory tree
// laid out as <root>/<channel>/manifest.json.
type ManifestService struct {
	root       string
	fileClient file.FileOperations
	logger     zerolog.Logger
}

// NewManifestService creates and returns a new instance of ManifestService.
func NewManifestService(root string, fileClient file.FileOperations, logger zerolog.Logger) *ManifestService {
	return &ManifestService{
		root:       root,
		fileClient: fileClient,
		logger:     logger,
	}
}

// Root returns the firmware directory.
func (m *ManifestService) Root() string {
	return m.root
}

// GetManifest resolves the manifest of channel ("stable" when empty).
// deviceID does not alter the result yet; it is accepted so manifests can be
// tailored per device later.
func (m *ManifestService) GetManifest(deviceID, channel string) (*models.Manifest, error) {
	manifest, err := m.getManifest(deviceID, channel)
	switch {
	case err == nil:
		metrics.ManifestRequests.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrManifestNotFound):
		metrics.ManifestRequests.WithLabelValues("not_found").Inc()
	default:
		metrics.ManifestRequests.WithLabelValues("error").Inc()
	}
	return manifest, err
}

func (m *ManifestService) getManifest(deviceID, channel string) (*models.Manifest, error) {
	if channel == "" {
		channel = constants.DefaultChannel
	}
	if !channelName.MatchString(channel) {
		m.logger.Debug().Str("device_id", deviceID).Str("channel", channel).Msg("Rejected manifest channel name")
		return nil, ErrManifestNotFound
	}

	path := filepath.Join(m.root, channel, constants.ManifestFileName)
	exists, err := m.fileClient.IsFileExists(path)
	if err != nil {
		m.logger.Error().Err(err).Str("path", path).Msg("Failed to stat manifest")
		return nil, fmt.Errorf("%w: %w", ErrManifestError, err)
	}
	if !exists {
		return nil, ErrManifestNotFound
	}

	body, err := m.fileClient.ReadFileRaw(path)
	if err != nil {
		m.logger.Error().Err(err).Str("path", path).Msg("Failed to read manifest")
		return nil, fmt.Errorf("%w: %w", ErrManifestError, err)
	}
	if !json.Valid(body) {
		m.logger.Error().Str("path", path).Msg("Manifest is not valid JSON")
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrManifestError, path)
	}

	sum := sha256.Sum256(body)
	manifest := &models.Manifest{
		DeviceID: deviceID,
		Channel:  channel,
		Body:     body,
		Digest:   hex.EncodeToString(sum[:]),
		Version:  m.parseVersion(path, body),
	}

	m.logger.Debug().
		Str("device_id", deviceID).
		Str("channel", channel).
		Str("digest", manifest.Digest).
		Msg("Manifest resolved")
	return manifest, nil
}

// parseVersion reads the optional semver "version" field of a manifest.
func (m *ManifestService) parseVersion(path string, body []byte) *semver.Version {
	var header models.ManifestHeader
	if err := json.Unmarshal(body, &header); err != nil || header.Version == "" {
		return nil
	}
	version, err := semver.NewVersion(header.Version)
	if err != nil {
		m.logger.Warn().Err(err).Str("path", path).Str("version", header.Version).Msg("Manifest version is not semver")
		return nil
	}
	return version
}

// UpdateAvailable reports whether manifest offers a newer version than the
// device's current one.
func (m *ManifestService) UpdateAvailable(manifest *models.Manifest, current string) (bool, error) {
	if manifest.Version == nil {
		return false, fmt.Errorf("manifest for channel %s has no semver %q field", manifest.Channel, constants.FieldManifestVersion)
	}
	currentVersion, err := semver.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("invalid current version %q: %w", current, err)
	}
	return manifest.Version.GreaterThan(currentVersion), nil
}
