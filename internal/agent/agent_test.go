package agent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/delivery"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/testutil"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// countingAssembler returns fixture snapshots and cancels once it has
// been called stopAfter times.
type countingAssembler struct {
	calls     atomic.Int32
	stopAfter int32
	cancel    context.CancelFunc
}

func (a *countingAssembler) Assemble(context.Context) *models.Snapshot {
	if a.calls.Add(1) == a.stopAfter && a.cancel != nil {
		a.cancel()
	}
	return testutil.NewSnapshot()
}

type recorder struct {
	mu    sync.Mutex
	snaps []*models.Snapshot
	err   error
}

func (r *recorder) Persist(snap *models.Snapshot) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return "/tmp/system_info.json", r.err
}

func (r *recorder) SaveSnapshot(_ context.Context, snap *models.Snapshot) error {
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestRun_DeliveryFailureDoesNotStopLoop(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := delivery.NewClient(delivery.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	asm := &countingAssembler{stopAfter: 3, cancel: cancel}

	before := promtestutil.ToFloat64(deliveryFailuresTotal.WithLabelValues("status"))

	a := NewAgent(Config{Interval: 10 * time.Millisecond}, zap.NewNop(), asm, WithSender(client))
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if n := asm.calls.Load(); n != 3 {
		t.Errorf("assembled %d snapshots, want 3", n)
	}
	if n := posts.Load(); n != 3 {
		t.Errorf("collector saw %d posts, want 3", n)
	}
	after := promtestutil.ToFloat64(deliveryFailuresTotal.WithLabelValues("status"))
	if after-before != 3 {
		t.Errorf("status failures grew by %v, want 3", after-before)
	}
}

func TestRun_SleepsIntervalBetweenCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	asm := &countingAssembler{stopAfter: 2, cancel: cancel}

	interval := 50 * time.Millisecond
	start := time.Now()
	if err := NewAgent(Config{Interval: interval}, zap.NewNop(), asm).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < interval {
		t.Errorf("two cycles finished in %s, want at least one %s sleep", elapsed, interval)
	}
}

func TestRunCycle_PersistFailureStillDelivers(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		posts.Add(1)
	}))
	defer srv.Close()

	client, err := delivery.NewClient(delivery.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	core, logs := observer.New(zapcore.WarnLevel)
	rec := &recorder{err: errors.New("disk full")}
	before := promtestutil.ToFloat64(persistFailuresTotal.WithLabelValues("file"))

	a := NewAgent(Config{Interval: time.Second}, zap.New(core), &countingAssembler{},
		WithPersister(rec), WithHistory(rec), WithSender(client))
	snap := a.RunCycle(context.Background())

	if snap == nil {
		t.Fatal("RunCycle returned nil snapshot")
	}
	if rec.count() != 1 {
		t.Errorf("persist called %d times, want 1", rec.count())
	}
	if posts.Load() != 1 {
		t.Errorf("collector saw %d posts, want 1", posts.Load())
	}
	if got := promtestutil.ToFloat64(persistFailuresTotal.WithLabelValues("file")) - before; got != 1 {
		t.Errorf("file persist failures grew by %v, want 1", got)
	}
	if logs.FilterMessage("failed to save snapshot file").Len() != 1 {
		t.Errorf("expected one persist error log, got %v", logs.All())
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{delivery.ErrRateLimited, "rate_limited"},
		{&delivery.StatusError{Code: 503}, "status"},
		{errors.New("connection refused"), "transport"},
	}
	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.want {
			t.Errorf("failureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
