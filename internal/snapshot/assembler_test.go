package snapshot

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/metrics"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/network"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe/probetest"
	"go.uber.org/zap"
)

type fakeKernel struct {
	facts metrics.Facts
}

func (f fakeKernel) Collect(context.Context) metrics.Facts { return f.facts }

func eth0Only(context.Context) ([]network.Counters, error) {
	return []network.Counters{{Name: "eth0", RxBytes: 1024, TxBytes: 2048}}, nil
}

func aptSystemdHost() *probetest.FakeRunner {
	return probetest.New().
		Tools("apt", "systemctl").
		Stdout("apt list --upgradable", "Listing... Done\nopenssl/jammy-updates 3.0.2-0ubuntu1.15 amd64 [upgradable from: 3.0.2-0ubuntu1.14]\n").
		Stdout("systemctl list-units --type=service --state=loaded",
			"  UNIT            LOAD   ACTIVE SUB     DESCRIPTION\n"+
				"  ssh.service     loaded active running OpenBSD Secure Shell server\n").
		Stdout("systemctl is-active ssh.service", "active\n").
		Stdout("systemctl is-enabled ssh.service", "enabled\n").
		Script("ssh -V", probe.Result{Stderr: "OpenSSH_8.9p1 Ubuntu-3ubuntu0.6, OpenSSL 3.0.2 15 Mar 2022\n", OK: true}).
		Stdout("ip addr show eth0", "    inet 10.0.0.5/24 brd 10.0.0.255 scope global eth0\n")
}

func TestAssemble_AptSystemdHost(t *testing.T) {
	fixed := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	r := aptSystemdHost()
	a := New(r, zap.NewNop(),
		WithKernel(fakeKernel{facts: metrics.Facts{Hostname: "web-01", KernelVersion: "6.5.0", OSVersion: "ubuntu 22.04"}}),
		WithCounterSource(eth0Only),
		WithClock(func() time.Time { return fixed }),
	)

	snap := a.Assemble(context.Background())

	if len(snap.Network.Interfaces) != 1 {
		t.Fatalf("got %d interfaces, want 1", len(snap.Network.Interfaces))
	}
	iface := snap.Network.Interfaces[0]
	if iface.Name != "eth0" || len(iface.IPAddresses) != 1 || iface.IPAddresses[0] != "10.0.0.5" {
		t.Errorf("interface = %+v, want eth0 -> [10.0.0.5]", iface)
	}
	if iface.RxBytes != 1024 || iface.TxBytes != 2048 {
		t.Errorf("counters = %d/%d", iface.RxBytes, iface.TxBytes)
	}

	updates := snap.Security.PackageUpdates
	if len(updates) != 1 || !strings.HasPrefix(updates[0], "openssl/") {
		t.Errorf("PackageUpdates = %q, want banner stripped", updates)
	}

	if snap.Platform.PackageManager != "apt" || snap.Platform.ServiceStyle != "systemd" {
		t.Errorf("Platform = %+v", snap.Platform)
	}
	if len(snap.Services) != 1 {
		t.Fatalf("Services = %+v", snap.Services)
	}
	svc := snap.Services[0]
	if svc.Name != "ssh.service" || !svc.Active || !svc.Enabled {
		t.Errorf("service = %+v", svc)
	}
	if svc.Version == nil || !strings.HasPrefix(*svc.Version, "OpenSSH_8.9p1") {
		t.Errorf("Version = %v", svc.Version)
	}

	if snap.Timestamp != "2024-03-04T10:00:00Z" {
		t.Errorf("Timestamp = %q", snap.Timestamp)
	}
	if _, err := uuid.Parse(snap.SnapshotID); err != nil {
		t.Errorf("SnapshotID %q: %v", snap.SnapshotID, err)
	}
	if snap.Hostname != "web-01" {
		t.Errorf("Hostname = %q", snap.Hostname)
	}
}

func TestAssemble_DetectsPlatformOnce(t *testing.T) {
	r := aptSystemdHost()
	New(r, zap.NewNop(), WithKernel(fakeKernel{}), WithCounterSource(eth0Only)).Assemble(context.Background())

	if n := r.CallCount("which systemctl"); n != 1 {
		t.Errorf("service style probed %d times, want 1", n)
	}
	if n := r.CallCount("which apt"); n != 1 {
		t.Errorf("package manager probed %d times, want 1", n)
	}
}

func TestAssemble_BareHostIsFullyPopulated(t *testing.T) {
	a := New(probetest.New(), zap.NewNop(),
		WithKernel(fakeKernel{}),
		WithCounterSource(func(context.Context) ([]network.Counters, error) { return nil, nil }),
	)
	snap := a.Assemble(context.Background())

	if snap.Hostname != "Unknown" || snap.KernelVersion != "Unknown" || snap.OSVersion != "Unknown" {
		t.Errorf("identity = %q/%q/%q", snap.Hostname, snap.KernelVersion, snap.OSVersion)
	}
	if snap.Platform.PackageManager != "unknown" || snap.Platform.ServiceStyle != "bsd" {
		t.Errorf("Platform = %+v", snap.Platform)
	}

	body, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{
		`"disks":[]`, `"interfaces":[]`, `"services":[]`, `"open_ports":[]`,
		`"package_updates":[]`, `"disk_info":[]`, `"reboot_history":[]`,
		`"process_list":[]`, `"sudo_users":[]`,
	} {
		if !strings.Contains(string(body), key) {
			t.Errorf("JSON missing %s", key)
		}
	}
	for _, key := range []string{`"disks":null`, `"services":null`, `"process_list":null`} {
		if strings.Contains(string(body), key) {
			t.Errorf("JSON contains %s", key)
		}
	}
}

func TestAssemble_MaxServices(t *testing.T) {
	r := probetest.New().
		Tools("systemctl").
		Stdout("systemctl list-units --type=service --state=loaded",
			"a.service loaded active running A\nb.service loaded active running B\nc.service loaded active running C\n")

	snap := New(r, zap.NewNop(),
		WithKernel(fakeKernel{}),
		WithCounterSource(eth0Only),
		WithMaxServices(2),
	).Assemble(context.Background())

	if len(snap.Services) != 2 {
		t.Errorf("got %d services, want 2", len(snap.Services))
	}
}
