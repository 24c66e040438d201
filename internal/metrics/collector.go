// Package metrics reads kernel-level facts: CPU, memory, load, disks,
// processes and host identity.
package metrics

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/shirou/gopsutil/v4/sensors"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
)

const (
	mib = 1024 * 1024
	gib = 1024 * 1024 * 1024

	// cpuSampleWindow is the interval over which CPU usage is measured.
	cpuSampleWindow = 200 * time.Millisecond
)

// Facts holds the kernel-sourced part of a snapshot.
type Facts struct {
	CPU           models.CPUInfo
	Memory        models.MemoryInfo
	LoadAvg       models.LoadAverage
	Disks         []models.DiskInfo
	Processes     []models.ProcessInfo
	Hostname      string
	KernelVersion string
	OSVersion     string
}

// Collector gathers kernel facts.
type Collector interface {
	Collect(ctx context.Context) Facts
}

// hostCollector reads kernel facts through gopsutil. Each section fails
// on its own and leaves its zero value behind.
type hostCollector struct {
	logger *zap.Logger
}

// Compile-time guard.
var _ Collector = (*hostCollector)(nil)

// NewCollector returns a Collector for the local host.
func NewCollector(logger *zap.Logger) Collector {
	return &hostCollector{logger: logger}
}

func (c *hostCollector) Collect(ctx context.Context) Facts {
	f := Facts{
		Disks:         []models.DiskInfo{},
		Processes:     []models.ProcessInfo{},
		Hostname:      models.Unknown,
		KernelVersion: models.Unknown,
		OSVersion:     models.Unknown,
	}

	f.CPU = c.collectCPU(ctx)

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		c.logger.Debug("memory metrics failed", zap.Error(err))
	} else {
		f.Memory = memoryInfo(vm)
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		c.logger.Debug("load average failed", zap.Error(err))
	} else {
		f.LoadAvg = models.LoadAverage{One: avg.Load1, Five: avg.Load5, Fifteen: avg.Load15}
	}

	if disks, err := c.collectDisks(ctx); err != nil {
		c.logger.Debug("disk metrics failed", zap.Error(err))
	} else {
		f.Disks = disks
	}

	if procs, err := c.collectProcesses(ctx); err != nil {
		c.logger.Debug("process list failed", zap.Error(err))
	} else {
		f.Processes = procs
	}

	if info, err := host.InfoWithContext(ctx); err != nil {
		c.logger.Debug("host info failed", zap.Error(err))
	} else {
		f.Hostname = orUnknown(info.Hostname)
		f.KernelVersion = orUnknown(info.KernelVersion)
		f.OSVersion = osVersion(info)
	}

	return f
}

func (c *hostCollector) collectCPU(ctx context.Context) models.CPUInfo {
	var out models.CPUInfo

	pct, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false)
	if err != nil {
		c.logger.Debug("cpu usage failed", zap.Error(err))
	} else if len(pct) > 0 {
		out.UsagePercent = float32(pct[0])
	}

	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		c.logger.Debug("cpu info failed", zap.Error(err))
	} else if len(infos) > 0 {
		out.FrequencyMHz = float32(infos[0].Mhz)
	}

	temps, err := sensors.TemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		// Some sensors fail to read while others succeed; only a total
		// failure is worth a log line.
		c.logger.Debug("temperature sensors failed", zap.Error(err))
	}
	out.TemperatureCelsius = packageTemperature(temps)

	return out
}

func (c *hostCollector) collectDisks(ctx context.Context) ([]models.DiskInfo, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	disks := make([]models.DiskInfo, 0, len(parts))
	for _, p := range parts {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			c.logger.Debug("disk usage failed",
				zap.String("mount", p.Mountpoint),
				zap.Error(err),
			)
			continue
		}
		disks = append(disks, diskInfo(p, usage))
	}
	return disks, nil
}

func (c *hostCollector) collectProcesses(ctx context.Context) ([]models.ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		// A process can exit between listing and inspection; its fields
		// are then simply left empty.
		info := models.ProcessInfo{PID: p.Pid}
		info.Name, _ = p.NameWithContext(ctx)
		if pct, err := p.CPUPercentWithContext(ctx); err == nil {
			info.CPUUsage = float32(pct)
		}
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			info.MemoryUsage = mi.RSS
		}
		if st, err := p.StatusWithContext(ctx); err == nil {
			info.Status = strings.Join(st, ",")
		}
		if uids, err := p.UidsWithContext(ctx); err == nil {
			info.User = realUID(uids)
		}
		if args, err := p.CmdlineSliceWithContext(ctx); err == nil {
			info.Command = strings.Join(args, " ")
		}
		out = append(out, info)
	}
	return out, nil
}

func memoryInfo(vm *mem.VirtualMemoryStat) models.MemoryInfo {
	used := vm.Used
	if used > vm.Total {
		used = vm.Total
	}
	return models.MemoryInfo{
		TotalMB: vm.Total / mib,
		UsedMB:  used / mib,
		FreeMB:  (vm.Total - used) / mib,
	}
}

// diskInfo reports space available to unprivileged users as free, so
// used includes the reserved root blocks.
func diskInfo(p disk.PartitionStat, u *disk.UsageStat) models.DiskInfo {
	free := u.Free
	if free > u.Total {
		free = u.Total
	}
	return models.DiskInfo{
		Name:       p.Device,
		TotalGB:    float64(u.Total) / gib,
		UsedGB:     float64(u.Total-free) / gib,
		FreeGB:     float64(free) / gib,
		MountPoint: p.Mountpoint,
	}
}

// osVersion renders a long OS name such as "ubuntu 22.04".
func osVersion(info *host.InfoStat) string {
	v := strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	if v == "" {
		v = info.OS
	}
	return orUnknown(v)
}

// realUID returns the real user id, the first entry gopsutil reports.
func realUID(uids []uint32) string {
	if len(uids) == 0 {
		return "0"
	}
	return strconv.FormatUint(uint64(uids[0]), 10)
}

// packageTemperature picks the CPU package sensor when one is present,
// otherwise the hottest reading. Nil when there are no readings.
func packageTemperature(temps []sensors.TemperatureStat) *float32 {
	var best *sensors.TemperatureStat
	for i := range temps {
		t := &temps[i]
		if t.Temperature <= 0 {
			continue
		}
		key := strings.ToLower(t.SensorKey)
		if strings.Contains(key, "package") || strings.Contains(key, "tctl") {
			best = t
			break
		}
		if best == nil || t.Temperature > best.Temperature {
			best = t
		}
	}
	if best == nil {
		return nil
	}
	v := float32(best.Temperature)
	return &v
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.Unknown
	}
	return s
}
