package state_managers

import (
	"sort"

	"github.com/benmeehan/rov-hub/internal/models"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// LatestStateCache holds the most recently accepted telemetry record per device.
// Every operation is atomic per device; entries live until overwritten or
// process exit.
type LatestStateCache struct {
	entries cmap.ConcurrentMap[string, models.TelemetryRecord]
}

// NewLatestStateCache initializes an empty cache.
func NewLatestStateCache() *LatestStateCache {
	return &LatestStateCache{
		entries: cmap.New[models.TelemetryRecord](),
	}
}

// Put replaces the entry for deviceID wholesale.
func (c *LatestStateCache) Put(deviceID string, record models.TelemetryRecord) {
	c.entries.Set(deviceID, record)
}

// Get returns the latest record for deviceID.
func (c *LatestStateCache) Get(deviceID string) (models.TelemetryRecord, bool) {
	return c.entries.Get(deviceID)
}

// GetAll returns a snapshot of every known device and its latest record.
func (c *LatestStateCache) GetAll() map[string]models.TelemetryRecord {
	return c.entries.Items()
}

// DeviceIDs returns the known device identifiers in ascending order.
func (c *LatestStateCache) DeviceIDs() []string {
	ids := c.entries.Keys()
	sort.Strings(ids)
	return ids
}

// Count returns the number of known devices.
func (c *LatestStateCache) Count() int {
	return c.entries.Count()
}
