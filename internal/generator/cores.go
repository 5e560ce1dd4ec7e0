package generator

import (
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
)

// cpuCounts is swapped in tests.
var cpuCounts = cpu.Counts

// PhysicalCores returns the number of physical cores. When the platform does
// not report them it falls back to the logical count.
func PhysicalCores() int {
	if n, err := cpuCounts(false); err == nil && n > 0 {
		return n
	}
	if n, err := cpuCounts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// WorkerCount sizes the pool. A positive override wins; otherwise reserved
// cores are left to the UI and server and the result is at least one.
func WorkerCount(physical, reserved, override int) int {
	if override > 0 {
		return override
	}
	n := physical - reserved
	if n < 1 {
		return 1
	}
	return n
}
