package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thokoanats/luct-reporting-web/internal/models"
)

type fakePinger struct {
	mu     sync.Mutex
	status *models.HealthStatus
	err    error
	calls  int
}

func (f *fakePinger) Health(ctx context.Context) (*models.HealthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.status, nil
}

func (f *fakePinger) set(status *models.HealthStatus, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.err = err
}

func TestProbeTracksBackendStatus(t *testing.T) {
	pinger := &fakePinger{status: &models.HealthStatus{Status: "ok"}}
	poller := NewPoller(pinger, time.Second, nil)

	poller.Probe()
	assert.True(t, poller.Up())
	assert.False(t, poller.LastChecked().IsZero())

	pinger.set(nil, errors.New("connection refused"))
	poller.Probe()
	assert.False(t, poller.Up())

	pinger.set(&models.HealthStatus{Status: "ok"}, nil)
	poller.Probe()
	assert.True(t, poller.Up())
}

func TestProbeEmptyStatusIsDown(t *testing.T) {
	pinger := &fakePinger{status: &models.HealthStatus{}}
	poller := NewPoller(pinger, time.Second, nil)

	poller.Probe()
	assert.False(t, poller.Up())
}

func TestStartProbesImmediately(t *testing.T) {
	pinger := &fakePinger{status: &models.HealthStatus{Status: "ok"}}
	poller := NewPoller(pinger, time.Second, nil)

	require.NoError(t, poller.Start("@every 1h"))
	defer poller.Stop()

	assert.True(t, poller.Up())
	pinger.mu.Lock()
	calls := pinger.calls
	pinger.mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestStartRejectsBadSpec(t *testing.T) {
	poller := NewPoller(&fakePinger{}, time.Second, nil)
	assert.Error(t, poller.Start("not a cron spec"))
}
