package metrics

import (
	"context"
	"runtime"
	"testing"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
)

func TestMemoryInfo(t *testing.T) {
	vm := &mem.VirtualMemoryStat{Total: 16 * gib, Used: 6 * gib}
	got := memoryInfo(vm)
	if got.TotalMB != 16384 || got.UsedMB != 6144 || got.FreeMB != 10240 {
		t.Errorf("memoryInfo = %+v", got)
	}
}

func TestMemoryInfo_UsedAboveTotal(t *testing.T) {
	got := memoryInfo(&mem.VirtualMemoryStat{Total: mib, Used: 2 * mib})
	if got.FreeMB != 0 || got.UsedMB != 1 {
		t.Errorf("memoryInfo = %+v", got)
	}
}

func TestDiskInfo(t *testing.T) {
	p := disk.PartitionStat{Device: "/dev/nvme0n1p2", Mountpoint: "/"}
	u := &disk.UsageStat{Total: 100 * gib, Free: 40 * gib}
	got := diskInfo(p, u)
	if got.Name != "/dev/nvme0n1p2" || got.MountPoint != "/" {
		t.Errorf("identity = %q on %q", got.Name, got.MountPoint)
	}
	if got.TotalGB != 100 || got.UsedGB != 60 || got.FreeGB != 40 {
		t.Errorf("sizes = %v/%v/%v", got.TotalGB, got.UsedGB, got.FreeGB)
	}
}

func TestOSVersion(t *testing.T) {
	tests := []struct {
		name string
		info host.InfoStat
		want string
	}{
		{"platform and version", host.InfoStat{OS: "linux", Platform: "ubuntu", PlatformVersion: "22.04"}, "ubuntu 22.04"},
		{"platform only", host.InfoStat{OS: "linux", Platform: "arch"}, "arch"},
		{"os only", host.InfoStat{OS: "linux"}, "linux"},
		{"nothing", host.InfoStat{}, models.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := osVersion(&tt.info); got != tt.want {
				t.Errorf("osVersion = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRealUID(t *testing.T) {
	if got := realUID([]uint32{1000, 1000, 1000, 1000}); got != "1000" {
		t.Errorf("realUID = %q, want 1000", got)
	}
	if got := realUID(nil); got != "0" {
		t.Errorf("realUID(nil) = %q, want 0", got)
	}
}

func TestPackageTemperature(t *testing.T) {
	tests := []struct {
		name  string
		temps []sensors.TemperatureStat
		want  float32
		isNil bool
	}{
		{
			name: "package sensor wins",
			temps: []sensors.TemperatureStat{
				{SensorKey: "nvme_composite", Temperature: 61},
				{SensorKey: "coretemp_package_id_0", Temperature: 48},
			},
			want: 48,
		},
		{
			name: "hottest otherwise",
			temps: []sensors.TemperatureStat{
				{SensorKey: "acpitz", Temperature: 40},
				{SensorKey: "nvme_composite", Temperature: 55},
			},
			want: 55,
		},
		{name: "no readings", isNil: true},
		{
			name:  "only zero readings",
			temps: []sensors.TemperatureStat{{SensorKey: "acpitz", Temperature: 0}},
			isNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := packageTemperature(tt.temps)
			if tt.isNil {
				if got != nil {
					t.Errorf("got %v, want nil", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollect_LocalHost(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("kernel facts are read from Linux interfaces")
	}
	f := NewCollector(zap.NewNop()).Collect(context.Background())
	if f.Hostname == "" || f.KernelVersion == "" || f.OSVersion == "" {
		t.Errorf("identity not populated: %+v", f)
	}
	if f.Memory.TotalMB == 0 {
		t.Error("Memory.TotalMB = 0")
	}
	if f.Disks == nil || f.Processes == nil {
		t.Error("collections must be non-nil")
	}
	if len(f.Processes) == 0 {
		t.Error("process table is empty; the test process itself should be listed")
	}
}
