// Package snapshot composes every fact collector into one Snapshot.
package snapshot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/access"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/boot"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/hardware"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/metrics"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/network"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/platform"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/security"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/services"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
)

// Assembler builds snapshots. It holds no state between calls.
type Assembler struct {
	runner      probe.Runner
	logger      *zap.Logger
	kernel      metrics.Collector
	counters    network.CounterSource
	maxServices int
	now         func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithKernel replaces the kernel facts collector.
func WithKernel(c metrics.Collector) Option {
	return func(a *Assembler) { a.kernel = c }
}

// WithCounterSource replaces the interface byte counter source.
func WithCounterSource(src network.CounterSource) Option {
	return func(a *Assembler) { a.counters = src }
}

// WithMaxServices caps how many services are resolved per snapshot.
// Zero means no cap.
func WithMaxServices(n int) Option {
	return func(a *Assembler) { a.maxServices = n }
}

// WithClock sets the capture time source.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// New creates an Assembler that runs tools through runner.
func New(runner probe.Runner, logger *zap.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		runner:   runner,
		logger:   logger,
		counters: network.KernelCounters,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.kernel == nil {
		a.kernel = metrics.NewCollector(logger.Named("metrics"))
	}
	return a
}

// Assemble runs every collector in turn and returns a fully populated
// snapshot. The platform is detected once so that every collector in the
// cycle sees the same package manager and service style.
func (a *Assembler) Assemble(ctx context.Context) *models.Snapshot {
	start := a.now()
	plat := platform.Detect(ctx, a.runner)

	kf := a.kernel.Collect(ctx)

	snap := &models.Snapshot{
		SnapshotID:    uuid.New().String(),
		CPU:           kf.CPU,
		Memory:        kf.Memory,
		LoadAvg:       kf.LoadAvg,
		Disks:         kf.Disks,
		Network:       network.New(a.runner, a.logger.Named("network"), a.counters).Collect(ctx),
		UserAccess:    access.New(a.runner, a.logger.Named("access")).Collect(ctx),
		Services:      services.New(a.runner, a.logger.Named("services"), plat.ServiceStyle, a.maxServices).Collect(ctx),
		Security:      security.New(a.runner, a.logger.Named("security")).Collect(ctx, plat.PackageManager),
		Hardware:      hardware.New(a.runner, a.logger.Named("hardware")).Collect(ctx),
		SystemUptime:  boot.New(a.runner, a.logger.Named("boot")).Uptime(ctx),
		Platform:      plat.Info(),
		Hostname:      kf.Hostname,
		KernelVersion: kf.KernelVersion,
		OSVersion:     kf.OSVersion,
		ProcessList:   kf.Processes,
		Timestamp:     start.Format(time.RFC3339),
	}
	normalize(snap)

	a.logger.Debug("snapshot assembled",
		zap.String("snapshot_id", snap.SnapshotID),
		zap.String("package_manager", snap.Platform.PackageManager),
		zap.String("service_style", snap.Platform.ServiceStyle),
		zap.Int("services", len(snap.Services)),
		zap.Int("processes", len(snap.ProcessList)),
		zap.Duration("elapsed", a.now().Sub(start)),
	)
	return snap
}

// normalize replaces nil collections with empty ones so that the JSON
// form always carries [] rather than null.
func normalize(s *models.Snapshot) {
	s.Disks = nonNil(s.Disks)
	s.Network.Interfaces = nonNil(s.Network.Interfaces)
	for i := range s.Network.Interfaces {
		s.Network.Interfaces[i].IPAddresses = nonNil(s.Network.Interfaces[i].IPAddresses)
	}
	s.UserAccess.LastSSHLogins = nonNil(s.UserAccess.LastSSHLogins)
	s.UserAccess.ActiveUsers = nonNil(s.UserAccess.ActiveUsers)
	s.UserAccess.SudoUsers = nonNil(s.UserAccess.SudoUsers)
	s.Services = nonNil(s.Services)
	s.Security.OpenPorts = nonNil(s.Security.OpenPorts)
	s.Security.PackageUpdates = nonNil(s.Security.PackageUpdates)
	s.Hardware.DiskInfo = nonNil(s.Hardware.DiskInfo)
	s.SystemUptime.RebootHistory = nonNil(s.SystemUptime.RebootHistory)
	s.ProcessList = nonNil(s.ProcessList)
	if s.Hostname == "" {
		s.Hostname = models.Unknown
	}
	if s.KernelVersion == "" {
		s.KernelVersion = models.Unknown
	}
	if s.OSVersion == "" {
		s.OSVersion = models.Unknown
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
