package modals

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Janitor is a background worker that sweeps expired modals.
type Janitor struct {
	reg      *Registry
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewJanitor creates a janitor that sweeps reg every interval.
func NewJanitor(reg *Registry, logger *zap.Logger, interval time.Duration) *Janitor {
	return &Janitor{
		reg:      reg,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (j *Janitor) Start() {
	j.wg.Add(1)
	go j.run()
	j.log.Info("modal janitor started", zap.Duration("interval", j.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopCh)
		j.wg.Wait()
		j.log.Info("modal janitor stopped")
	})
}

func (j *Janitor) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopCh:
			return
		case <-ticker.C:
			if n := j.reg.Sweep(); n > 0 {
				j.log.Info("closed expired registration modals", zap.Int("count", n))
			}
		}
	}
}
