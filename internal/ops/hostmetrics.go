// Package ops provides host-level enrichment for the control API — figures
// that are never load-bearing for scheduling decisions, only surfaced to
// operators.
package ops

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostMetrics is the optional "host" object on /v1/status. A nil pointer
// means sampling failed or was skipped; callers omit the field rather than
// block the response on it.
type HostMetrics struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemUsedPct  float64 `json:"mem_used_pct"`
	DiskUsedPct float64 `json:"disk_used_pct"`
}

// SampleHostMetrics takes a short, bounded snapshot of host resource
// pressure. diskPath is the volume to report disk usage for (the state DB's
// parent directory in practice). Any failure returns (nil, err) so callers
// can drop the field silently.
func SampleHostMetrics(ctx context.Context, diskPath string) (*HostMetrics, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	cpuPct := 0.0
	if len(percents) > 0 {
		cpuPct = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	du, err := disk.UsageWithContext(ctx, diskPath)
	if err != nil {
		return nil, err
	}

	return &HostMetrics{
		CPUPercent:  cpuPct,
		MemUsedPct:  vm.UsedPercent,
		DiskUsedPct: du.UsedPercent,
	}, nil
}
