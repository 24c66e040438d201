// Package network lists the kernel's network interfaces together with the
// addresses assigned to each of them.
package network

import (
	"context"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/net"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
)

// Counters is one kernel-reported interface and its cumulative byte counts.
type Counters struct {
	Name    string
	RxBytes uint64
	TxBytes uint64
}

// CounterSource lists interfaces known to the kernel.
type CounterSource func(ctx context.Context) ([]Counters, error)

// KernelCounters reads per-interface counters from /proc/net/dev.
func KernelCounters(ctx context.Context) ([]Counters, error) {
	stats, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]Counters, 0, len(stats))
	for _, s := range stats {
		out = append(out, Counters{Name: s.Name, RxBytes: s.BytesRecv, TxBytes: s.BytesSent})
	}
	return out, nil
}

// Resolver resolves interface addresses with ip(8), falling back to
// ifconfig(8) on hosts that only ship net-tools.
type Resolver struct {
	runner probe.Runner
	logger *zap.Logger
	source CounterSource
}

// New creates a Resolver that enumerates interfaces through source.
func New(runner probe.Runner, logger *zap.Logger, source CounterSource) *Resolver {
	return &Resolver{runner: runner, logger: logger, source: source}
}

// Collect returns every interface, sorted by name, with its addresses.
func (r *Resolver) Collect(ctx context.Context) models.NetworkInfo {
	counters, err := r.source(ctx)
	if err != nil {
		r.logger.Debug("interface counters unavailable", zap.Error(err))
	}
	sort.Slice(counters, func(i, j int) bool { return counters[i].Name < counters[j].Name })

	ifaces := make([]models.NetworkInterface, 0, len(counters))
	for _, c := range counters {
		ifaces = append(ifaces, models.NetworkInterface{
			Name:        c.Name,
			IPAddresses: r.Addresses(ctx, c.Name),
			RxBytes:     c.RxBytes,
			TxBytes:     c.TxBytes,
		})
	}
	return models.NetworkInfo{Interfaces: ifaces}
}

// Addresses returns the addresses of iface. ifconfig is consulted whenever
// ip reports nothing, whether because ip is missing or because the
// interface really has no address.
func (r *Resolver) Addresses(ctx context.Context, iface string) []string {
	addrs, _ := probe.FirstOf(
		func() ([]string, bool) {
			a := parseIPAddr(r.runner.Run(ctx, "ip", "addr", "show", iface).Stdout)
			return a, len(a) > 0
		},
		func() ([]string, bool) {
			a := parseIfconfig(r.runner.Run(ctx, "ifconfig", iface).Stdout)
			return a, len(a) > 0
		},
	)
	if addrs == nil {
		return []string{}
	}
	return addrs
}

// parseIPAddr extracts addresses from `ip addr show` output, dropping the
// prefix length.
func parseIPAddr(out string) []string {
	var addrs []string
	for _, line := range probe.Lines(out) {
		if !strings.Contains(line, "inet ") && !strings.Contains(line, "inet6 ") {
			continue
		}
		tok, ok := probe.Field(line, 1)
		if !ok {
			continue
		}
		addr, _, _ := strings.Cut(tok, "/")
		if addr != "" {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// parseIfconfig extracts addresses from ifconfig output. Both the modern
// "inet 10.0.0.5  netmask ..." and the net-tools 1.x
// "inet addr:10.0.0.5  Bcast:..." layouts are understood.
func parseIfconfig(out string) []string {
	var addrs []string
	for _, line := range probe.Lines(out) {
		if !strings.Contains(line, "inet ") && !strings.Contains(line, "inet6 ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		addr := strings.TrimPrefix(fields[1], "addr:")
		if addr == "" && len(fields) > 2 {
			addr = fields[2]
		}
		if addr != "" {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}
