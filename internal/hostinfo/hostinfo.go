// Package hostinfo captures the operating system and processor a benchmark
// ran on. Object manager behaviour differs between Windows builds, so results
// are only comparable alongside this snapshot.
package hostinfo

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot describes the host.
type Snapshot struct {
	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	KernelArch      string
	CPUModel        string
	CPUCores        int
	LogicalCPUs     int
	MemoryTotal     uint64
	GoVersion       string
}

// Collector gathers a Snapshot. The zero value queries the running host.
type Collector struct {
	hostInfo   func(context.Context) (*host.InfoStat, error)
	cpuInfo    func(context.Context) ([]cpu.InfoStat, error)
	memoryInfo func(context.Context) (*mem.VirtualMemoryStat, error)
	numCPU     func() int
}

// Collect returns a snapshot of the running host.
func Collect(ctx context.Context) (Snapshot, error) {
	var c Collector
	return c.Collect(ctx)
}

// Collect gathers what it can. Sources that fail leave their fields empty
// and are reported together in the returned error.
func (c Collector) Collect(ctx context.Context) (Snapshot, error) {
	if c.hostInfo == nil {
		c.hostInfo = host.InfoWithContext
	}
	if c.cpuInfo == nil {
		c.cpuInfo = cpu.InfoWithContext
	}
	if c.memoryInfo == nil {
		c.memoryInfo = mem.VirtualMemoryWithContext
	}
	if c.numCPU == nil {
		c.numCPU = runtime.NumCPU
	}
	snap := Snapshot{
		OS:          runtime.GOOS,
		KernelArch:  runtime.GOARCH,
		LogicalCPUs: c.numCPU(),
		GoVersion:   runtime.Version(),
	}
	var errs []error
	if info, err := c.hostInfo(ctx); err != nil {
		errs = append(errs, fmt.Errorf("hostinfo: host: %w", err))
	} else if info != nil {
		snap.Hostname = info.Hostname
		if info.OS != "" {
			snap.OS = info.OS
		}
		snap.Platform = info.Platform
		snap.PlatformVersion = info.PlatformVersion
		snap.KernelVersion = info.KernelVersion
		if info.KernelArch != "" {
			snap.KernelArch = info.KernelArch
		}
	}
	if infos, err := c.cpuInfo(ctx); err != nil {
		errs = append(errs, fmt.Errorf("hostinfo: cpu: %w", err))
	} else if len(infos) > 0 {
		snap.CPUModel = infos[0].ModelName
		for _, info := range infos {
			snap.CPUCores += int(info.Cores)
		}
	}
	if vm, err := c.memoryInfo(ctx); err != nil {
		errs = append(errs, fmt.Errorf("hostinfo: memory: %w", err))
	} else if vm != nil {
		snap.MemoryTotal = vm.Total
	}
	return snap, errors.Join(errs...)
}

// Fields returns the snapshot as ordered label/value pairs for display.
func (s Snapshot) Fields() [][2]string {
	memory := ""
	if s.MemoryTotal > 0 {
		memory = humanize.IBytes(s.MemoryTotal)
	}
	return [][2]string{
		{"hostname", s.Hostname},
		{"os", s.OS},
		{"platform", s.Platform},
		{"platform_version", s.PlatformVersion},
		{"kernel_version", s.KernelVersion},
		{"kernel_arch", s.KernelArch},
		{"cpu_model", s.CPUModel},
		{"cpu_cores", humanize.Comma(int64(s.CPUCores))},
		{"logical_cpus", humanize.Comma(int64(s.LogicalCPUs))},
		{"memory_total", memory},
		{"go_version", s.GoVersion},
	}
}

// LogFields returns the snapshot as alternating key/value pairs.
func (s Snapshot) LogFields() []any {
	fields := s.Fields()
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		out = append(out, f[0], f[1])
	}
	return out
}
