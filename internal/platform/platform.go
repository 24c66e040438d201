// Package platform detects which package manager and which service
// supervision style a host uses.
package platform

import (
	"context"
	"strings"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
)

// PackageManager identifies the host's package tooling.
type PackageManager string

const (
	PackageManagerApt     PackageManager = "apt"
	PackageManagerYum     PackageManager = "yum"
	PackageManagerDnf     PackageManager = "dnf"
	PackageManagerPacman  PackageManager = "pacman"
	PackageManagerZypper  PackageManager = "zypper"
	PackageManagerUnknown PackageManager = "unknown"
)

// packageManagerPriority is the order in which managers are probed.
// Hosts with both yum and dnf installed resolve to yum.
var packageManagerPriority = []PackageManager{
	PackageManagerApt,
	PackageManagerYum,
	PackageManagerDnf,
	PackageManagerPacman,
	PackageManagerZypper,
}

// ServiceStyle identifies how background services are supervised.
type ServiceStyle string

const (
	// ServiceStyleSystemd is unit-based supervision through systemctl.
	ServiceStyleSystemd ServiceStyle = "systemd"
	// ServiceStyleSysV is script-based supervision through service(8) and /etc/init.d.
	ServiceStyleSysV ServiceStyle = "sysv"
	// ServiceStyleBSD is rc.d supervision, the fallback when neither tool exists.
	ServiceStyleBSD ServiceStyle = "bsd"
)

// Platform is the detection result for one collection cycle. It is
// resolved once and handed to every collector that depends on it.
type Platform struct {
	PackageManager PackageManager
	ServiceStyle   ServiceStyle
}

// Info converts p to its snapshot representation.
func (p Platform) Info() models.PlatformInfo {
	return models.PlatformInfo{
		PackageManager: string(p.PackageManager),
		ServiceStyle:   string(p.ServiceStyle),
	}
}

// Detect resolves both the package manager and the service style.
func Detect(ctx context.Context, r probe.Runner) Platform {
	return Platform{
		PackageManager: DetectPackageManager(ctx, r),
		ServiceStyle:   DetectServiceStyle(ctx, r),
	}
}

// DetectPackageManager returns the first manager present on the host in
// priority order, or PackageManagerUnknown.
func DetectPackageManager(ctx context.Context, r probe.Runner) PackageManager {
	attempts := make([]func() (PackageManager, bool), 0, len(packageManagerPriority))
	for _, pm := range packageManagerPriority {
		attempts = append(attempts, func() (PackageManager, bool) {
			return pm, r.Exists(ctx, string(pm))
		})
	}
	if pm, ok := probe.FirstOf(attempts...); ok {
		return pm
	}
	return PackageManagerUnknown
}

// DetectServiceStyle prefers systemd, then SysV init scripts, then rc.d.
func DetectServiceStyle(ctx context.Context, r probe.Runner) ServiceStyle {
	switch {
	case r.Exists(ctx, "systemctl"):
		return ServiceStyleSystemd
	case r.Exists(ctx, "service"):
		return ServiceStyleSysV
	default:
		return ServiceStyleBSD
	}
}

// updateQuery describes how one package manager lists pending updates.
type updateQuery struct {
	prepare []string // run first, result ignored
	args    []string
	keep    func(index int, line string) bool
}

var updateQueries = map[PackageManager]updateQuery{
	PackageManagerApt: {
		prepare: []string{"update"},
		args:    []string{"list", "--upgradable"},
		// First line is the "Listing..." banner.
		keep: func(i int, _ string) bool { return i > 0 },
	},
	PackageManagerYum: {
		args: []string{"check-update"},
		keep: func(_ int, line string) bool {
			return line != "" && !strings.HasPrefix(line, "Loaded plugins:")
		},
	},
	PackageManagerDnf: {
		args: []string{"check-update"},
		keep: func(_ int, line string) bool {
			return line != "" && !strings.HasPrefix(line, "Last metadata")
		},
	},
	PackageManagerPacman: {
		args: []string{"-Qu"},
		keep: func(int, string) bool { return true },
	},
	PackageManagerZypper: {
		args: []string{"list-updates"},
		// Drops the "S | Repository | ..." header row.
		keep: func(_ int, line string) bool {
			return line != "" && !strings.HasPrefix(line, "S")
		},
	},
}

// PackageUpdates lists pending updates using pm's own tooling. Output is
// filtered even when the tool exits non-zero, since yum and dnf exit 100
// when updates are available. An unknown manager yields an empty list.
func PackageUpdates(ctx context.Context, r probe.Runner, pm PackageManager) []string {
	q, ok := updateQueries[pm]
	if !ok {
		return []string{}
	}
	if q.prepare != nil {
		r.Run(ctx, string(pm), q.prepare...)
	}

	res := r.Run(ctx, string(pm), q.args...)
	updates := []string{}
	for i, line := range probe.Lines(res.Stdout) {
		if q.keep(i, line) {
			updates = append(updates, line)
		}
	}
	return updates
}
