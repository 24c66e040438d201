// Package probetest provides a scripted probe.Runner for tests.
package probetest

import (
	"context"
	"strings"
	"sync"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
)

// FakeRunner returns canned results keyed by the full command line
// ("name arg1 arg2"). Commands without a script fail as if the tool were
// missing. Every invocation is recorded.
type FakeRunner struct {
	mu      sync.Mutex
	results map[string]probe.Result
	tools   map[string]bool
	calls   []string
}

// Compile-time guard.
var _ probe.Runner = (*FakeRunner)(nil)

// New returns an empty FakeRunner.
func New() *FakeRunner {
	return &FakeRunner{
		results: make(map[string]probe.Result),
		tools:   make(map[string]bool),
	}
}

// Tools marks names as present for Exists.
func (f *FakeRunner) Tools(names ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.tools[n] = true
	}
	return f
}

// Stdout scripts a successful command that prints out.
func (f *FakeRunner) Stdout(cmdline, out string) *FakeRunner {
	return f.Script(cmdline, probe.Result{Stdout: out, OK: true})
}

// Script sets the exact result for cmdline.
func (f *FakeRunner) Script(cmdline string, r probe.Result) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[cmdline] = r
	return f
}

// Run implements probe.Runner.
func (f *FakeRunner) Run(_ context.Context, name string, args ...string) probe.Result {
	key := strings.Join(append([]string{name}, args...), " ")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	return f.results[key]
}

// Exists implements probe.Runner.
func (f *FakeRunner) Exists(_ context.Context, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "which "+name)
	return f.tools[name]
}

// Calls returns every command line seen so far, in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many recorded command lines start with prefix.
func (f *FakeRunner) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
