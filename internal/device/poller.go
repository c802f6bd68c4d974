package device

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Poller periodically syncs every enabled device for the previous day
type Poller struct {
	service  *Service
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewPoller(service *Service, interval time.Duration) *Poller {
	return &Poller{
		service:  service,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the polling loop in its own goroutine. The loop runs until
// ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()
}

func (p *Poller) run(ctx context.Context) {
	slog.Info("Starting device sync poller", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Device sync poller stopped (context cancelled)")
			return
		case <-p.stopChan:
			slog.Info("Device sync poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Stop signals the poller to stop and waits for the current pass.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

func (p *Poller) poll(ctx context.Context) {
	summary, err := p.service.SyncAll(ctx, "")
	if err != nil {
		slog.Error("Device sync pass failed", "error", err)
		return
	}
	slog.Debug("Device sync pass done", "date", summary.SyncDate, "devices", summary.TotalDevices, "errors", summary.Errors)
}
