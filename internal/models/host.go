package models

import "time"

type HostStats struct {
	Hostname         string    `json:"hostname"`
	Platform         string    `json:"platform"`
	UptimeSeconds    int64     `json:"uptime_seconds"`
	CPUCores         int32     `json:"cpu_cores"`
	TotalMemoryBytes int64     `json:"total_memory_bytes"`
	UsedMemoryBytes  int64     `json:"used_memory_bytes"`
	CollectedAt      time.Time `json:"collected_at"`
}
