// Package stats reports information about the host the server runs on.
package stats

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/metorial/script-admin/internal/models"
)

type Collector struct {
	hostname string
}

func NewCollector() (*Collector, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("get hostname: %w", err)
	}
	return &Collector{hostname: hostname}, nil
}

func (c *Collector) Collect(ctx context.Context) (models.HostStats, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return models.HostStats{}, fmt.Errorf("get host info: %w", err)
	}

	cpuCores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return models.HostStats{}, fmt.Errorf("get cpu cores: %w", err)
	}

	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.HostStats{}, fmt.Errorf("get memory info: %w", err)
	}

	platform := info.Platform
	if platform == "" {
		platform = info.OS
	}

	return models.HostStats{
		Hostname:         c.hostname,
		Platform:         platform,
		UptimeSeconds:    int64(info.Uptime),
		CPUCores:         int32(cpuCores),
		TotalMemoryBytes: int64(memInfo.Total),
		UsedMemoryBytes:  int64(memInfo.Used),
		CollectedAt:      time.Now(),
	}, nil
}
