package system

import (
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is the subset of host facts the preflight checks use.
type HostStats struct {
	Platform        string // e.g. "debian"
	PlatformVersion string
	DiskFree        uint64 // bytes free on the filesystem holding the data dir
	MemTotal        uint64
}

// StatFunc collects HostStats for path; swapped in tests.
type StatFunc func(path string) (HostStats, error)

// CollectHostStats queries gopsutil. path is walked up to the nearest
// existing directory before measuring free space.
func CollectHostStats(path string) (HostStats, error) {
	var hs HostStats
	if info, err := host.Info(); err == nil {
		hs.Platform = info.Platform
		hs.PlatformVersion = info.PlatformVersion
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		hs.MemTotal = vm.Total
	}
	usage, err := disk.Usage(existingAncestor(path))
	if err != nil {
		return hs, err
	}
	hs.DiskFree = usage.Free
	return hs, nil
}

func existingAncestor(p string) string {
	for {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p
		}
		p = parent
	}
}

// IsRoot reports whether the process runs with uid 0.
func IsRoot() bool { return os.Geteuid() == 0 }
