package pipeline

import (
	"sync"
	"time"
)

// DefaultTimeout is the wall-clock budget for one run.
const DefaultTimeout = 60 * time.Second

// TimeoutGuard fires once if it is not stopped within its budget.
type TimeoutGuard struct {
	timer *time.Timer
	fired chan struct{}
	once  sync.Once
}

// StartGuard arms a guard. onFire runs on the timer goroutine before Done is closed.
func StartGuard(budget time.Duration, onFire func()) *TimeoutGuard {
	g := &TimeoutGuard{fired: make(chan struct{})}
	g.timer = time.AfterFunc(budget, func() {
		g.once.Do(func() {
			if onFire != nil {
				onFire()
			}
			close(g.fired)
		})
	})
	return g
}

// Done is closed after the guard fires.
func (g *TimeoutGuard) Done() <-chan struct{} {
	return g.fired
}

// Stop disarms the guard. It reports false if the guard had already fired.
func (g *TimeoutGuard) Stop() bool {
	return g.timer.Stop()
}
