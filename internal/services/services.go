// Package services enumerates supervised services and resolves whether each
// one is running, enabled at boot, and which version it reports.
package services

import (
	"context"
	"strings"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/platform"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
)

// aliases lists the binary names a logical service may be installed under,
// in the order they are tried.
var aliases = map[string][]string{
	"mysql": {"mysql", "mariadb", "mysqld"},
	"redis": {"redis", "redis-server"},
	"nginx": {"nginx", "nginx-main"},
}

// Inventory resolves services for one service supervision style.
type Inventory struct {
	runner      probe.Runner
	logger      *zap.Logger
	style       platform.ServiceStyle
	maxServices int
}

// New creates an Inventory. maxServices caps how many enumerated services
// are resolved; zero means no cap.
func New(runner probe.Runner, logger *zap.Logger, style platform.ServiceStyle, maxServices int) *Inventory {
	return &Inventory{
		runner:      runner,
		logger:      logger,
		style:       style,
		maxServices: maxServices,
	}
}

// Collect enumerates services and resolves status and version for each.
func (inv *Inventory) Collect(ctx context.Context) []models.ServiceInfo {
	names := inv.List(ctx)
	if inv.maxServices > 0 && len(names) > inv.maxServices {
		inv.logger.Debug("service list truncated",
			zap.Int("found", len(names)),
			zap.Int("max", inv.maxServices),
		)
		names = names[:inv.maxServices]
	}

	out := make([]models.ServiceInfo, 0, len(names))
	for _, name := range names {
		active, enabled := inv.ResolveStatus(ctx, name)
		out = append(out, models.ServiceInfo{
			Name:    name,
			Active:  active,
			Enabled: enabled,
			Version: inv.ResolveVersion(ctx, name),
		})
	}

	inv.logger.Debug("collected services",
		zap.String("style", string(inv.style)),
		zap.Int("count", len(out)),
	)
	return out
}

// List returns candidate service names known to the supervision style.
func (inv *Inventory) List(ctx context.Context) []string {
	switch inv.style {
	case platform.ServiceStyleSystemd:
		res := inv.runner.Run(ctx, "systemctl", "list-units", "--type=service", "--state=loaded")
		return parseUnitList(res.Stdout)
	case platform.ServiceStyleSysV:
		return parseDirListing(inv.runner.Run(ctx, "ls", "/etc/init.d/").Stdout)
	default:
		return parseDirListing(inv.runner.Run(ctx, "ls", "/etc/rc.d/").Stdout)
	}
}

// parseUnitList extracts unit names from systemctl list-units output.
// Template instances (containing '@') are skipped, as are the column
// header, legend and footer lines.
func parseUnitList(out string) []string {
	var names []string
	for _, line := range probe.Lines(out) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		// Failed units are prefixed with a bullet column.
		if (name == "●" || name == "*") && len(fields) > 1 {
			name = fields[1]
		}
		if !strings.HasSuffix(name, ".service") || strings.Contains(name, "@") {
			continue
		}
		names = append(names, name)
	}
	return names
}

func parseDirListing(out string) []string {
	var names []string
	for _, line := range probe.Lines(out) {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// candidateNames returns the alias chain for a service. Unit suffixes are
// ignored when looking up aliases, so "mysql.service" tries mariadb too.
func candidateNames(service string) []string {
	base, _, _ := strings.Cut(service, ".")
	if names, ok := aliases[base]; ok {
		return names
	}
	return []string{service}
}

type status struct {
	active, enabled bool
}

// ResolveStatus returns the status of the first alias that reports either
// active or enabled. If no alias reports anything it returns (false, false).
func (inv *Inventory) ResolveStatus(ctx context.Context, service string) (active, enabled bool) {
	names := candidateNames(service)
	attempts := make([]func() (status, bool), 0, len(names))
	for _, name := range names {
		attempts = append(attempts, func() (status, bool) {
			s := inv.statusOf(ctx, name)
			return s, s.active || s.enabled
		})
	}
	s, _ := probe.FirstOf(attempts...)
	return s.active, s.enabled
}

func (inv *Inventory) statusOf(ctx context.Context, name string) status {
	switch inv.style {
	case platform.ServiceStyleSystemd:
		return status{
			active:  strings.TrimSpace(inv.runner.Run(ctx, "systemctl", "is-active", name).Stdout) == "active",
			enabled: strings.TrimSpace(inv.runner.Run(ctx, "systemctl", "is-enabled", name).Stdout) == "enabled",
		}
	case platform.ServiceStyleSysV:
		return status{
			active:  strings.Contains(inv.runner.Run(ctx, "service", name, "status").Stdout, "running"),
			enabled: strings.Contains(inv.runner.Run(ctx, "chkconfig", "--list", name).Stdout, "on"),
		}
	default:
		return status{
			active:  strings.Contains(inv.runner.Run(ctx, "/etc/rc.d/"+name, "status").Stdout, "running"),
			enabled: strings.Contains(inv.runner.Run(ctx, "rc-update", "show", name).Stdout, "default"),
		}
	}
}

// ResolveVersion asks the service's binary for its version, trying the
// common flag spellings and the -server and -cli companion binaries. The
// first line of the first non-empty output wins; stdout is checked before
// stderr. It returns nil when every attempt is silent.
func (inv *Inventory) ResolveVersion(ctx context.Context, service string) *string {
	bin, _, _ := strings.Cut(service, ".")

	invocations := [][]string{
		{bin, "--version"},
		{bin, "-v"},
		{bin, "-V"},
		{bin + "-server", "--version"},
		{bin + "-cli", "--version"},
	}

	attempts := make([]func() (string, bool), 0, len(invocations))
	for _, argv := range invocations {
		attempts = append(attempts, func() (string, bool) {
			res := inv.runner.Run(ctx, argv[0], argv[1:]...)
			if res.Stdout != "" {
				return probe.FirstLine(res.Stdout), true
			}
			if res.Stderr != "" {
				return probe.FirstLine(res.Stderr), true
			}
			return "", false
		})
	}

	if v, ok := probe.FirstOf(attempts...); ok {
		return &v
	}
	return nil
}
