// Package boot reconstructs uptime and reboot history from login records
// and the systemd journal.
package boot

import (
	"context"
	"strings"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
)

// loginRecordMinFields is the token count a `last reboot` line needs
// before its timestamp columns can be read.
const loginRecordMinFields = 6

// History reads reboot events from two independent sources.
type History struct {
	runner probe.Runner
	logger *zap.Logger
}

// New creates a History.
func New(runner probe.Runner, logger *zap.Logger) *History {
	return &History{runner: runner, logger: logger}
}

// Uptime returns the current uptime line, the last boot time and the
// merged reboot history.
func (h *History) Uptime(ctx context.Context) models.UptimeInfo {
	return models.UptimeInfo{
		CurrentUptime: strings.TrimSpace(h.runner.Run(ctx, "uptime").Stdout),
		LastBootTime:  strings.TrimSpace(h.runner.Run(ctx, "who", "-b").Stdout),
		RebootHistory: h.Records(ctx),
	}
}

// Records returns login-record reboots followed by journal boots. The two
// lists are concatenated as-is: the same boot may appear in both.
func (h *History) Records(ctx context.Context) []models.BootRecord {
	records := h.fromLoginRecords(ctx)
	n := len(records)
	if h.runner.Exists(ctx, "journalctl") {
		records = append(records, h.fromJournal(ctx)...)
	}
	h.logger.Debug("reboot history collected",
		zap.Int("login_records", n),
		zap.Int("journal_records", len(records)-n),
	)
	return records
}

func (h *History) fromLoginRecords(ctx context.Context) []models.BootRecord {
	return parseLoginRecords(h.runner.Run(ctx, "last", "reboot").Stdout)
}

// parseLoginRecords reads reboot-tagged lines of `last reboot`. Columns
// 3-5 form the timestamp and everything after column 5 is the reason.
// The offsets follow the tool's default C-locale layout.
func parseLoginRecords(out string) []models.BootRecord {
	records := []models.BootRecord{}
	for _, line := range probe.Lines(out) {
		if !strings.Contains(line, "reboot") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < loginRecordMinFields {
			continue
		}
		rec := models.BootRecord{Timestamp: strings.Join(parts[3:6], " ")}
		if len(parts) > loginRecordMinFields {
			reason := strings.Join(parts[6:], " ")
			rec.Reason = &reason
		}
		records = append(records, rec)
	}
	return records
}

func (h *History) fromJournal(ctx context.Context) []models.BootRecord {
	lines := probe.Lines(h.runner.Run(ctx, "journalctl", "--list-boots", "--no-pager").Stdout)
	records := []models.BootRecord{}
	if len(lines) < 2 {
		return records
	}
	for _, line := range lines[1:] {
		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}
		records = append(records, models.BootRecord{
			Timestamp: parts[1] + " " + parts[2],
			Reason:    h.shutdownReason(ctx, parts[0]),
		})
	}
	return records
}

// shutdownReason returns the last journal line of boot id when it
// mentions a shutdown or reboot.
func (h *History) shutdownReason(ctx context.Context, id string) *string {
	last, ok := probe.LastLine(h.runner.Run(ctx, "journalctl", "-b", id, "--no-pager").Stdout)
	if !ok {
		return nil
	}
	if strings.Contains(last, "shutdown") || strings.Contains(last, "reboot") {
		return &last
	}
	return nil
}
