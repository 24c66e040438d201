package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
)

// NewSnapshot returns a fully populated Snapshot with sensible defaults,
// suitable for test fixtures. Override individual fields with options.
func NewSnapshot(opts ...func(*models.Snapshot)) *models.Snapshot {
	version := "OpenSSH_9.6p1"
	s := &models.Snapshot{
		SnapshotID: uuid.New().String(),
		CPU:        models.CPUInfo{UsagePercent: 12.5, FrequencyMHz: 2400},
		Memory:     models.MemoryInfo{TotalMB: 16384, UsedMB: 6144, FreeMB: 10240},
		LoadAvg:    models.LoadAverage{One: 0.42, Five: 0.35, Fifteen: 0.30},
		Disks: []models.DiskInfo{
			{Name: "/dev/sda1", TotalGB: 100, UsedGB: 40, FreeGB: 60, MountPoint: "/"},
		},
		Network: models.NetworkInfo{Interfaces: []models.NetworkInterface{
			{Name: "eth0", IPAddresses: []string{"10.0.0.5"}, RxBytes: 1 << 20, TxBytes: 1 << 19},
		}},
		UserAccess: models.UserAccess{
			LastSSHLogins: []string{},
			ActiveUsers:   []string{},
			SudoUsers:     []string{"admin"},
		},
		Services: []models.ServiceInfo{
			{Name: "ssh.service", Active: true, Enabled: true, Version: &version},
		},
		Security: models.SecurityInfo{
			FirewallEnabled: true,
			OpenPorts:       []uint16{22},
			PackageUpdates:  []string{},
		},
		Hardware: models.HardwareInfo{
			CPUModel:     "Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz",
			Cores:        4,
			TotalRAMMB:   16384,
			DiskInfo:     []string{},
			SystemVendor: "QEMU",
			SystemModel:  "Standard PC (Q35 + ICH9, 2009)",
		},
		SystemUptime:  models.UptimeInfo{RebootHistory: []models.BootRecord{}},
		Platform:      models.PlatformInfo{PackageManager: "apt", ServiceStyle: "systemd"},
		Hostname:      "test-host",
		KernelVersion: "6.8.0-31-generic",
		OSVersion:     "ubuntu 24.04",
		ProcessList: []models.ProcessInfo{
			{PID: 1, Name: "systemd", Status: "sleep", User: "0", Command: "/sbin/init"},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithHostname sets the snapshot hostname.
func WithHostname(name string) func(*models.Snapshot) {
	return func(s *models.Snapshot) { s.Hostname = name }
}

// WithTimestamp sets the capture timestamp.
func WithTimestamp(t time.Time) func(*models.Snapshot) {
	return func(s *models.Snapshot) { s.Timestamp = t.Format(time.RFC3339) }
}

// WithServices replaces the service list.
func WithServices(svcs ...models.ServiceInfo) func(*models.Snapshot) {
	return func(s *models.Snapshot) { s.Services = svcs }
}
