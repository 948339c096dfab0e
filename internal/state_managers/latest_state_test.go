package state_managers

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(deviceID, body string) models.TelemetryRecord {
	return models.TelemetryRecord{
		DeviceID:   deviceID,
		ReceivedAt: time.Now().UTC(),
		Body:       json.RawMessage(body),
	}
}

func TestLatestStateCache_PutGet(t *testing.T) {
	cache := NewLatestStateCache()

	_, ok := cache.Get("rov-1")
	assert.False(t, ok)

	cache.Put("rov-1", record("rov-1", `{"battery":42}`))
	cache.Put("rov-1", record("rov-1", `{"depth":3}`))

	got, ok := cache.Get("rov-1")
	require.True(t, ok)
	assert.JSONEq(t, `{"depth":3}`, string(got.Body), "entries are replaced, never merged")
	assert.Equal(t, 1, cache.Count())
}

func TestLatestStateCache_DeviceIDsSorted(t *testing.T) {
	cache := NewLatestStateCache()
	assert.Empty(t, cache.DeviceIDs())

	for _, id := range []string{"rov-2", "buoy", "rov-1"} {
		cache.Put(id, record(id, `{}`))
	}

	assert.Equal(t, []string{"buoy", "rov-1", "rov-2"}, cache.DeviceIDs())
	assert.Len(t, cache.GetAll(), 3)
}

func TestLatestStateCache_ConcurrentWriters(t *testing.T) {
	cache := NewLatestStateCache()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("dev-%d", i%10)
				cache.Put(id, record(id, fmt.Sprintf(`{"writer":%d,"seq":%d}`, w, i)))
				_, _ = cache.Get(id)
				_ = cache.GetAll()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 10, cache.Count())
	for id, rec := range cache.GetAll() {
		assert.Equal(t, id, rec.DeviceID)
		assert.True(t, json.Valid(rec.Body))
	}
}
