package tray

import (
	"sync"
	"time"
)

const (
	// pendingInterval is the delay between run-loop probes while creation
	// of the native status item is deferred.
	pendingInterval = 100 * time.Millisecond

	// pendingMaxAttempts bounds the deferred-creation poll. When the probe
	// never succeeds within the budget, creation silently fails and the
	// handle degrades to a no-op.
	pendingMaxAttempts = 10
)

// scheduler runs a function after a delay. The real implementation uses the
// runtime timer; tests substitute a manual one so poll outcomes do not
// depend on wall-clock timing.
type scheduler interface {
	schedule(d time.Duration, fn func())
}

// timerScheduler is the production scheduler.
type timerScheduler struct{}

func (timerScheduler) schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// pendingCreate is the deferred-creation poll used when the native toolkit
// is not yet accepting status items at the moment the host creates the
// tray (typically during early startup, before the application run loop is
// confirmed running). It probes at a fixed interval, realizes on the first
// successful probe, and gives up after pendingMaxAttempts probes.
type pendingCreate struct {
	sched       scheduler
	interval    time.Duration
	maxAttempts int

	// ready probes whether the native side can accept a status item now.
	ready func() bool

	// realize performs the actual native allocation. Runs at most once.
	realize func()

	// exhausted runs once when the retry budget runs out.
	exhausted func()

	mu       sync.Mutex
	attempts int
	settled  bool
	canceled bool
}

// newPendingCreate wires a poll with the production bounds.
func newPendingCreate(sched scheduler, ready func() bool, realize, exhausted func()) *pendingCreate {
	return &pendingCreate{
		sched:       sched,
		interval:    pendingInterval,
		maxAttempts: pendingMaxAttempts,
		ready:       ready,
		realize:     realize,
		exhausted:   exhausted,
	}
}

// start performs the first probe immediately and schedules retries as
// needed.
func (p *pendingCreate) start() {
	p.step()
}

// cancel stops the poll without realizing. Used when the handle is
// destroyed while still pending.
func (p *pendingCreate) cancel() {
	p.mu.Lock()
	p.canceled = true
	p.mu.Unlock()
}

// attemptsMade returns the number of probes performed so far.
func (p *pendingCreate) attemptsMade() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.attempts
}

func (p *pendingCreate) step() {
	p.mu.Lock()

	if p.settled || p.canceled {
		p.mu.Unlock()
		return
	}

	p.attempts++

	if p.ready() {
		p.settled = true
		p.mu.Unlock()
		p.realize()
		return
	}

	if p.attempts >= p.maxAttempts {
		p.settled = true
		p.mu.Unlock()
		p.exhausted()
		return
	}

	p.mu.Unlock()
	p.sched.schedule(p.interval, p.step)
}
