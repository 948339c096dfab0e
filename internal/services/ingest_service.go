package services

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/benmeehan/rov-hub/internal/constants"
	"github.com/benmeehan/rov-hub/internal/metrics"
	"github.com/benmeehan/rov-hub/internal/models"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// RecordStore keeps the latest record per device.
type RecordStore interface {
	Put(deviceID string, record models.TelemetryRecord)
}

// RecordLog durably appends accepted records. Implementations swallow their
// own I/O failures.
type RecordLog interface {
	Append(deviceID string, line []byte)
}

// EventPublisher fans events out to live subscribers.
type EventPublisher interface {
	Publish(evt models.Event)
}

// IngestService admits telemetry documents: it authenticates producers,
// validates documents, stamps them and commits them to the cache, the append
// log and the event bus, in that order.
type IngestService struct {
	keyDigest    [sha256.Size]byte
	maxBodyBytes int64
	store        RecordStore
	log          RecordLog
	publisher    EventPublisher
	logger       zerolog.Logger
	now          func() time.Time

	// deviceLocks keeps cache, log and bus in the same per-device order.
	deviceLocks cmap.ConcurrentMap[string, *sync.Mutex]
}

// NewIngestService initializes an IngestService.
func NewIngestService(apiKey string, maxBodyBytes int64, store RecordStore, log RecordLog,
	publisher EventPublisher, logger zerolog.Logger) *IngestService {

	return &IngestService{
		keyDigest:    sha256.Sum256([]byte(apiKey)),
		maxBodyBytes: maxBodyBytes,
		store:        store,
		log:          log,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
		deviceLocks:  cmap.New[*sync.Mutex](),
	}
}

// MaxBodyBytes returns the largest accepted document size.
func (s *IngestService) MaxBodyBytes() int64 {
	return s.maxBodyBytes
}

// Authenticate checks a producer credential against the configured key in
// constant time. An empty credential never matches.
func (s *IngestService) Authenticate(key string) error {
	if key == "" {
		return ErrUnauthorized
	}
	digest := sha256.Sum256([]byte(key))
	if subtle.ConstantTimeCompare(digest[:], s.keyDigest[:]) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Ingest validates and commits one telemetry document received over transport.
// Rejected documents leave no trace in the cache, the log or the bus.
func (s *IngestService) Ingest(body []byte, transport string) (models.TelemetryRecord, error) {
	record, err := s.ingest(body)
	if err != nil {
		metrics.TelemetryTotal.WithLabelValues(transport, "rejected").Inc()
		s.logger.Debug().Err(err).Str("transport", transport).Msg("Telemetry rejected")
		return models.TelemetryRecord{}, err
	}

	metrics.TelemetryTotal.WithLabelValues(transport, "accepted").Inc()
	metrics.TelemetryBytesTotal.Add(float64(len(record.Body)))
	s.logger.Debug().
		Str("device_id", record.DeviceID).
		Str("transport", transport).
		Int("bytes", len(record.Body)).
		Msg("Telemetry accepted")
	return record, nil
}

func (s *IngestService) ingest(body []byte) (models.TelemetryRecord, error) {
	if s.maxBodyBytes > 0 && int64(len(body)) > s.maxBodyBytes {
		return models.TelemetryRecord{}, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidPayload, s.maxBodyBytes)
	}

	var doc models.TelemetryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return models.TelemetryRecord{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if doc == nil {
		return models.TelemetryRecord{}, fmt.Errorf("%w: document must be a JSON object", ErrInvalidPayload)
	}

	deviceID := ExtractDeviceID(doc)
	if deviceID == "" {
		return models.TelemetryRecord{}, ErrMissingDeviceID
	}

	lock := s.deviceLocks.Upsert(deviceID, nil, func(exist bool, valueInMap, _ *sync.Mutex) *sync.Mutex {
		if exist {
			return valueInMap
		}
		return &sync.Mutex{}
	})
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	receivedAt := s.now().UTC()
	stamp, err := json.Marshal(receivedAt.Format(time.RFC3339Nano))
	if err != nil {
		return models.TelemetryRecord{}, fmt.Errorf("failed to encode timestamp: %w", err)
	}
	doc[constants.FieldServerReceivedAt] = stamp

	encoded, err := encodeDocument(doc)
	if err != nil {
		return models.TelemetryRecord{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	record := models.TelemetryRecord{
		DeviceID:   deviceID,
		ReceivedAt: receivedAt,
		Body:       encoded,
	}

	s.store.Put(deviceID, record)
	s.log.Append(deviceID, encoded)
	s.publisher.Publish(models.Event{
		Type: constants.EventTelemetry,
		At:   s.now().UTC(),
		Data: models.TelemetryEventData{DeviceID: deviceID, Telemetry: record},
	})

	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	return record, nil
}

// encodeDocument renders doc as compact JSON without HTML escaping so string
// values keep their original characters.
func encodeDocument(doc models.TelemetryDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ExtractDeviceID returns the device identifier of doc, or "" when none of the
// identifier fields holds a usable value. The first usable field wins. Strings
// must be non-empty; non-zero numbers are taken by their literal text.
func ExtractDeviceID(doc models.TelemetryDocument) string {
	for _, field := range constants.DeviceIDFields {
		raw, ok := doc[field]
		if !ok {
			continue
		}
		if id := deviceIDFromRaw(raw); id != "" {
			return id
		}
	}
	return ""
}

func deviceIDFromRaw(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || n == 0 {
			return ""
		}
		return string(raw)
	default:
		return ""
	}
}
