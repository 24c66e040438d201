// Package security audits firewall, intrusion prevention, listening ports
// and pending package updates.
package security

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/platform"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
)

// Auditor runs the four security probes. Each probe fails independently.
type Auditor struct {
	runner probe.Runner
	logger *zap.Logger
}

// New creates an Auditor.
func New(runner probe.Runner, logger *zap.Logger) *Auditor {
	return &Auditor{runner: runner, logger: logger}
}

// Collect runs every probe. Package updates are listed with pm, the
// manager detected for the current cycle.
func (a *Auditor) Collect(ctx context.Context, pm platform.PackageManager) models.SecurityInfo {
	info := models.SecurityInfo{
		FirewallEnabled: a.FirewallEnabled(ctx),
		Fail2banActive:  a.Fail2banActive(ctx),
		OpenPorts:       a.OpenPorts(ctx),
		PackageUpdates:  platform.PackageUpdates(ctx, a.runner, pm),
	}
	a.logger.Debug("security audit complete",
		zap.Bool("firewall", info.FirewallEnabled),
		zap.Bool("fail2ban", info.Fail2banActive),
		zap.Int("open_ports", len(info.OpenPorts)),
		zap.Int("package_updates", len(info.PackageUpdates)),
	)
	return info
}

// FirewallEnabled reports whether ufw says it is active.
func (a *Auditor) FirewallEnabled(ctx context.Context) bool {
	return strings.Contains(a.runner.Run(ctx, "ufw", "status").Stdout, "Status: active")
}

// Fail2banActive reports whether fail2ban-client answers with a status.
func (a *Auditor) Fail2banActive(ctx context.Context) bool {
	return strings.Contains(a.runner.Run(ctx, "fail2ban-client", "status").Stdout, "Status")
}

// OpenPorts lists listening TCP and UDP ports, sorted and without
// duplicates.
func (a *Auditor) OpenPorts(ctx context.Context) []uint16 {
	return parseListeningPorts(a.runner.Run(ctx, "ss", "-tuln").Stdout)
}

// parseListeningPorts reads the local address column of `ss -tuln` and
// keeps the port after its last colon. Lines whose column does not parse
// as a port, including the header, are skipped.
func parseListeningPorts(out string) []uint16 {
	ports := []uint16{}
	for _, line := range probe.Lines(out) {
		local, ok := probe.Field(line, 4)
		if !ok {
			continue
		}
		idx := strings.LastIndexByte(local, ':')
		if idx < 0 {
			continue
		}
		port, err := strconv.ParseUint(local[idx+1:], 10, 16)
		if err != nil {
			continue
		}
		ports = append(ports, uint16(port))
	}
	slices.Sort(ports)
	return slices.Compact(ports)
}
