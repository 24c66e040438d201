// Package agent drives the collection loop.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/delivery"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
)

// Assembler produces one snapshot per call.
type Assembler interface {
	Assemble(ctx context.Context) *models.Snapshot
}

// Persister writes a snapshot to local storage and returns where it went.
type Persister interface {
	Persist(snap *models.Snapshot) (string, error)
}

// HistoryStore keeps snapshots for later inspection.
type HistoryStore interface {
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
}

// Sender ships a snapshot to the remote collector.
type Sender interface {
	Send(ctx context.Context, snap *models.Snapshot) error
}

// Config holds the loop settings.
type Config struct {
	Interval time.Duration
}

// Agent runs collection cycles until its context is cancelled.
type Agent struct {
	config    Config
	logger    *zap.Logger
	assembler Assembler
	persister Persister
	history   HistoryStore
	sender    Sender
}

// Option wires an optional collaborator into the Agent.
type Option func(*Agent)

// WithPersister enables the local JSON file copy.
func WithPersister(p Persister) Option {
	return func(a *Agent) { a.persister = p }
}

// WithHistory enables the snapshot history store.
func WithHistory(h HistoryStore) Option {
	return func(a *Agent) { a.history = h }
}

// WithSender enables delivery to the remote collector.
func WithSender(s Sender) Option {
	return func(a *Agent) { a.sender = s }
}

// NewAgent creates a collection agent.
func NewAgent(config Config, logger *zap.Logger, assembler Assembler, opts ...Option) *Agent {
	a := &Agent{
		config:    config,
		logger:    logger,
		assembler: assembler,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes cycles back to back, sleeping the configured interval
// between them. It blocks until ctx is cancelled; a cycle that has
// already started runs to completion first. Persistence and delivery
// failures are logged and never end the loop.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent running",
		zap.Duration("interval", a.config.Interval),
		zap.Bool("persist", a.persister != nil),
		zap.Bool("history", a.history != nil),
		zap.Bool("deliver", a.sender != nil),
	)

	for {
		a.RunCycle(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			a.logger.Info("agent shutting down")
			return nil
		case <-time.After(a.config.Interval):
		}
	}
}

// RunCycle assembles one snapshot and hands it to every collaborator.
func (a *Agent) RunCycle(ctx context.Context) *models.Snapshot {
	start := time.Now()
	defer func() {
		cycleDuration.Observe(time.Since(start).Seconds())
		cyclesTotal.Inc()
	}()

	snap := a.assembler.Assemble(ctx)
	log := a.logger.With(zap.String("snapshot_id", snap.SnapshotID))

	if a.persister != nil {
		path, err := a.persister.Persist(snap)
		if err != nil {
			persistFailuresTotal.WithLabelValues("file").Inc()
			log.Error("failed to save snapshot file", zap.Error(err))
		} else {
			log.Debug("snapshot saved", zap.String("path", path))
		}
	}

	if a.history != nil {
		if err := a.history.SaveSnapshot(ctx, snap); err != nil {
			persistFailuresTotal.WithLabelValues("history").Inc()
			log.Error("failed to record snapshot history", zap.Error(err))
		}
	}

	if a.sender != nil {
		if err := a.sender.Send(ctx, snap); err != nil {
			deliveryFailuresTotal.WithLabelValues(failureReason(err)).Inc()
			log.Warn("snapshot delivery failed", zap.Error(err))
		} else {
			log.Info("snapshot delivered", zap.Duration("elapsed", time.Since(start)))
		}
	}

	return snap
}

func failureReason(err error) string {
	var statusErr *delivery.StatusError
	switch {
	case errors.Is(err, delivery.ErrRateLimited):
		return "rate_limited"
	case errors.As(err, &statusErr):
		return "status"
	default:
		return "transport"
	}
}
