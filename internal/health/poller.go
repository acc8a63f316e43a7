package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/thokoanats/luct-reporting-web/internal/models"
)

// Pinger probes the reporting backend's liveness endpoint.
type Pinger interface {
	Health(ctx context.Context) (*models.HealthStatus, error)
}

// Poller probes the backend on a cron schedule and keeps the last observed
// status for the view layer's banner.
type Poller struct {
	pinger  Pinger
	timeout time.Duration
	logger  *zap.Logger
	cron    *cron.Cron
	up      atomic.Bool
	checked atomic.Int64
}

// NewPoller constructs a poller; Start must be called to begin probing.
func NewPoller(pinger Pinger, timeout time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Poller{
		pinger:  pinger,
		timeout: timeout,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start probes once immediately and then on the given cron spec.
func (p *Poller) Start(spec string) error {
	p.Probe()
	if _, err := p.cron.AddFunc(spec, p.Probe); err != nil {
		return err
	}
	p.cron.Start()
	return nil
}

// Stop halts the schedule. Pending probe runs complete.
func (p *Poller) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// Probe performs one health check and records the outcome.
func (p *Poller) Probe() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	status, err := p.pinger.Health(ctx)
	up := err == nil && status != nil && status.Status != ""
	prev := p.up.Swap(up)
	p.checked.Store(time.Now().UTC().Unix())

	if up != prev {
		p.logger.Info("backend health changed", zap.Bool("up", up))
	}
	if err != nil {
		p.logger.Warn("backend health probe failed", zap.Error(err))
	}
}

// Up reports the last observed backend status.
func (p *Poller) Up() bool {
	return p.up.Load()
}

// LastChecked returns when the backend was last probed.
func (p *Poller) LastChecked() time.Time {
	unix := p.checked.Load()
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}
