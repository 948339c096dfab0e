package state_managers

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/benmeehan/rov-hub/internal/metrics"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// ErrStorageFault marks an append-log write that did not reach the file.
// It is logged and counted, never returned to ingestion callers.
var ErrStorageFault = errors.New("storage fault")

const (
	logFileExt        = ".ndjson"
	maxPlainIDLength  = 128
	encodedNamePrefix = "~"
	hashedNamePrefix  = "#"
)

var plainDeviceID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// AppendLog writes every accepted telemetry record as one NDJSON line to a
// per-device file under the data directory.
type AppendLog struct {
	dir    string
	fsync  bool
	sinks  cmap.ConcurrentMap[string, *deviceSink]
	logger zerolog.Logger
	faults atomic.Uint64
	closed atomic.Bool
}

// deviceSink serializes writers of one device file.
type deviceSink struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewAppendLog creates the data directory if needed and returns an AppendLog
// writing into it.
func NewAppendLog(dir string, fsync bool, logger zerolog.Logger) (*AppendLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &AppendLog{
		dir:    dir,
		fsync:  fsync,
		sinks:  cmap.New[*deviceSink](),
		logger: logger,
	}, nil
}

// LogFileName maps a device identifier to its file name. Identifiers that are
// not plain file names are encoded so they cannot leave the data directory.
func LogFileName(deviceID string) string {
	if len(deviceID) <= maxPlainIDLength && plainDeviceID.MatchString(deviceID) {
		return deviceID + logFileExt
	}
	if len(deviceID) <= maxPlainIDLength {
		return encodedNamePrefix + base64.RawURLEncoding.EncodeToString([]byte(deviceID)) + logFileExt
	}
	sum := sha256.Sum256([]byte(deviceID))
	return hashedNamePrefix + hex.EncodeToString(sum[:]) + logFileExt
}

// Path returns the file the records of deviceID are appended to.
func (l *AppendLog) Path(deviceID string) string {
	return filepath.Join(l.dir, LogFileName(deviceID))
}

// Append writes line followed by a newline to the device's file and returns
// once the write has completed. Failures are reported as storage faults
// through the logger and metrics only.
func (l *AppendLog) Append(deviceID string, line []byte) {
	if err := l.append(deviceID, line); err != nil {
		l.faults.Add(1)
		metrics.StorageFaults.Inc()
		l.logger.Error().Err(err).Str("device_id", deviceID).Msg("Append log write failed")
	}
}

// Faults returns the number of storage faults since startup.
func (l *AppendLog) Faults() uint64 {
	return l.faults.Load()
}

func (l *AppendLog) append(deviceID string, line []byte) error {
	sink := l.sinks.Upsert(deviceID, nil, func(exist bool, valueInMap, _ *deviceSink) *deviceSink {
		if exist {
			return valueInMap
		}
		return &deviceSink{path: l.Path(deviceID)}
	})

	sink.mu.Lock()
	defer sink.mu.Unlock()

	if l.closed.Load() {
		return fmt.Errorf("%w: append log is closed", ErrStorageFault)
	}
	if sink.file == nil {
		file, err := os.OpenFile(sink.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("%w: open %s: %w", ErrStorageFault, sink.path, err)
		}
		sink.file = file
	}

	record := make([]byte, 0, len(line)+1)
	record = append(record, line...)
	record = append(record, '\n')

	if _, err := sink.file.Write(record); err != nil {
		sink.discard()
		return fmt.Errorf("%w: write %s: %w", ErrStorageFault, sink.path, err)
	}
	if l.fsync {
		if err := sink.file.Sync(); err != nil {
			sink.discard()
			return fmt.Errorf("%w: sync %s: %w", ErrStorageFault, sink.path, err)
		}
	}
	return nil
}

// discard drops a handle after a failed write so the next append reopens it.
// Caller holds s.mu.
func (s *deviceSink) discard() {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}

// Close releases every open device file. Appends after Close are faults.
func (l *AppendLog) Close() error {
	l.closed.Store(true)

	var errs []error
	for item := range l.sinks.IterBuffered() {
		sink := item.Val
		sink.mu.Lock()
		if sink.file != nil {
			if err := sink.file.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close %s: %w", sink.path, err))
			}
			sink.file = nil
		}
		sink.mu.Unlock()
	}
	return errors.Join(errs...)
}
