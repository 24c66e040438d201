// Package hardware resolves CPU, memory, block device and DMI identity.
package hardware

import (
	"context"
	"strconv"
	"strings"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
)

// Profiler collects the hardware profile from util-linux, procps and
// dmidecode output.
type Profiler struct {
	runner probe.Runner
	logger *zap.Logger
}

// New creates a Profiler.
func New(runner probe.Runner, logger *zap.Logger) *Profiler {
	return &Profiler{runner: runner, logger: logger}
}

// Collect returns the hardware profile. Fields whose tool is missing are
// left at their zero value.
func (p *Profiler) Collect(ctx context.Context) models.HardwareInfo {
	vendor, model := p.systemIdentity(ctx)
	hw := models.HardwareInfo{
		CPUModel:     probe.ValueAfterColon(p.runner.Run(ctx, "lscpu").Stdout, "Model name"),
		Cores:        parseCores(p.runner.Run(ctx, "nproc").Stdout),
		TotalRAMMB:   parseFreeTotal(p.runner.Run(ctx, "free", "-m").Stdout),
		DiskInfo:     probe.NonEmpty(probe.Lines(p.runner.Run(ctx, "lsblk").Stdout)),
		SystemVendor: vendor,
		SystemModel:  model,
	}
	p.logger.Debug("hardware profile collected",
		zap.String("cpu_model", hw.CPUModel),
		zap.Uint32("cores", hw.Cores),
		zap.Uint64("total_ram_mb", hw.TotalRAMMB),
	)
	return hw
}

// systemIdentity reads vendor and product name from dmidecode. dmidecode
// needs root; without it both values stay empty.
func (p *Profiler) systemIdentity(ctx context.Context) (vendor, model string) {
	out := p.runner.Run(ctx, "dmidecode").Stdout
	return probe.ValueAfterColon(out, "Vendor:"), probe.ValueAfterColon(out, "Product Name:")
}

func parseCores(out string) uint32 {
	n, err := strconv.ParseUint(strings.TrimSpace(out), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

// parseFreeTotal reads the "total" column of the Mem: row of `free -m`.
func parseFreeTotal(out string) uint64 {
	lines := probe.Lines(out)
	if len(lines) < 2 {
		return 0
	}
	tok, ok := probe.Field(lines[1], 1)
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
