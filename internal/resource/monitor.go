// Package resource implements the pre-ingestion memory bound check that
// gates whether an index reload may proceed: ingesting a
// multi-hundred-megabyte XML corpus into an in-memory Index should not
// be attempted when the host is already memory-constrained.
package resource

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"sanctions-screening/internal/config"
)

// Snapshot is a point-in-time read of host and process memory, derived
// from mem.VirtualMemory and runtime.MemStats.
type Snapshot struct {
	HostTotalBytes     uint64
	HostUsedBytes      uint64
	HostAvailableBytes uint64
	HostUsedPercent    float64
	ProcessRSSBytes    uint64
	GoHeapAllocBytes   uint64
	GoroutineCount     int
}

// Read captures a Snapshot of current host and process memory usage.
func Read() (Snapshot, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, fmt.Errorf("resource: read host memory: %w", err)
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Snapshot{}, fmt.Errorf("resource: open process handle: %w", err)
	}
	procMem, err := proc.MemoryInfo()
	if err != nil {
		return Snapshot{}, fmt.Errorf("resource: read process memory: %w", err)
	}

	var rtm runtime.MemStats
	runtime.ReadMemStats(&rtm)

	return Snapshot{
		HostTotalBytes:     vm.Total,
		HostUsedBytes:      vm.Used,
		HostAvailableBytes: vm.Available,
		HostUsedPercent:    vm.UsedPercent,
		ProcessRSSBytes:    procMem.RSS,
		GoHeapAllocBytes:   rtm.Alloc,
		GoroutineCount:     runtime.NumGoroutine(),
	}, nil
}

// CheckIngestAllowed applies cfg.Performance.MemoryLimitBytes: ingestion
// is refused once the process's own resident set already exceeds the
// configured ceiling, rather than waiting for an OOM kill mid-parse.
func CheckIngestAllowed(cfg *config.Config) error {
	snap, err := Read()
	if err != nil {
		return err
	}
	if cfg.Performance.MemoryLimitBytes > 0 && int64(snap.ProcessRSSBytes) > cfg.Performance.MemoryLimitBytes {
		return fmt.Errorf("resource: process RSS %d bytes exceeds memory_limit_bytes %d, refusing ingest",
			snap.ProcessRSSBytes, cfg.Performance.MemoryLimitBytes)
	}
	return nil
}
