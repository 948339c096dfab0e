package metrics_collectors

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/disk"
)

// DiskMetricCollector reports how full the filesystem holding Path is.
type DiskMetricCollector struct {
	Path   string
	Logger zerolog.Logger
}

func (d *DiskMetricCollector) Name() string {
	return "data_disk"
}

func (d *DiskMetricCollector) Collect(ctx context.Context) any {
	diskStats, err := disk.UsageWithContext(ctx, d.Path)
	if err != nil {
		d.Logger.Error().Err(err).Str("path", d.Path).Msg("Failed to get disk usage")
		return nil
	}
	return diskStats.UsedPercent
}

func (d *DiskMetricCollector) Unit() string {
	return "percentage"
}

func (d *DiskMetricCollector) Description() string {
	return "Percentage of disk space used on the filesystem holding the append logs."
}
