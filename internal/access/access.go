// Package access reports recent logins, logged-in users and sudo members.
package access

import (
	"context"
	"strings"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
)

// recentLogins is how many lines of `last` are kept.
const recentLogins = 5

// Reporter reads login accounting and group membership.
type Reporter struct {
	runner probe.Runner
	logger *zap.Logger
}

// New creates a Reporter.
func New(runner probe.Runner, logger *zap.Logger) *Reporter {
	return &Reporter{runner: runner, logger: logger}
}

// Collect returns the user access summary.
func (r *Reporter) Collect(ctx context.Context) models.UserAccess {
	ua := models.UserAccess{
		LastSSHLogins: firstLines(r.runner.Run(ctx, "last").Stdout, recentLogins),
		ActiveUsers:   probe.NonEmpty(probe.Lines(r.runner.Run(ctx, "who").Stdout)),
		SudoUsers:     parseGroupMembers(r.runner.Run(ctx, "getent", "group", "sudo").Stdout),
	}
	r.logger.Debug("user access collected",
		zap.Int("active_users", len(ua.ActiveUsers)),
		zap.Int("sudo_users", len(ua.SudoUsers)),
	)
	return ua
}

func firstLines(out string, n int) []string {
	lines := probe.Lines(out)
	if len(lines) > n {
		lines = lines[:n]
	}
	return probe.NonEmpty(lines)
}

// parseGroupMembers reads the member list of a group(5) entry
// ("name:passwd:gid:user1,user2").
func parseGroupMembers(entry string) []string {
	fields := strings.SplitN(strings.TrimSpace(entry), ":", 4)
	if len(fields) < 4 {
		return []string{}
	}
	members := strings.Split(fields[3], ",")
	for i, m := range members {
		members[i] = strings.TrimSpace(m)
	}
	return probe.NonEmpty(members)
}
