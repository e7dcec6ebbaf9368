package quiz

import (
	"context"
	"sync"
	"time"
)

// DefaultExplanationDelay is how long an explanation stays on screen
// before the quiz moves on.
const DefaultExplanationDelay = 3 * time.Second

// DriverConfig tunes the wall-clock behavior of a Driver.
type DriverConfig struct {
	// TickInterval is the length of one countdown second. Zero means time.Second.
	TickInterval time.Duration
	// ExplanationDelay is the explanation pause. Zero means DefaultExplanationDelay.
	ExplanationDelay time.Duration
	// OnFinish, if set, runs in its own goroutine once per finished attempt.
	OnFinish func(Session)
	// OnChange, if set, is called with every new session state while the
	// driver lock is not held.
	OnChange func(Session)
}

// Driver runs one live attempt: it owns the session, ticks the countdown
// and schedules the explanation pause. It is safe for concurrent use.
type Driver struct {
	cfg DriverConfig

	mu   sync.Mutex
	sess Session
	done chan struct{}
	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewDriver wraps a not-started session.
func NewDriver(s Session, cfg DriverConfig) *Driver {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.ExplanationDelay <= 0 {
		cfg.ExplanationDelay = DefaultExplanationDelay
	}
	return &Driver{cfg: cfg, sess: s, done: make(chan struct{})}
}

// Session returns a snapshot of the current state.
func (d *Driver) Session() Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sess
}

// Done is closed when the current attempt finishes.
func (d *Driver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Start begins the attempt and the countdown. The countdown and any pending
// explanation pause stop when ctx is canceled.
func (d *Driver) Start(ctx context.Context, name string) error {
	d.mu.Lock()
	next, err := d.sess.Start(name)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	d.sess = next
	d.ctx, d.stop = ctx, cancel
	d.mu.Unlock()

	d.notify(next)
	d.wg.Add(1)
	go d.countdown(ctx)
	return nil
}

// Select records an answer for the current question.
func (d *Driver) Select(option string) error {
	return d.apply(func(s Session) (Session, error) { return s.Select(option) })
}

// Previous moves back one question.
func (d *Driver) Previous() error {
	return d.apply(Session.Previous)
}

// Next advances, pausing on the explanation first when the question has one.
func (d *Driver) Next() error {
	d.mu.Lock()
	next, err := d.sess.Next()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.sess = next
	var ctx context.Context
	if next.Explaining {
		ctx = d.ctx
	}
	finished := d.finishedLocked()
	d.mu.Unlock()

	d.notify(next)
	if ctx != nil {
		d.wg.Add(1)
		go d.pause(ctx)
	}
	d.afterFinish(finished)
	return nil
}

// Finish ends the attempt immediately.
func (d *Driver) Finish() {
	_ = d.apply(func(s Session) (Session, error) { return s.Finish(), nil })
}

// Restart returns to not-started with the same questions. It is only
// allowed once the attempt is finished.
func (d *Driver) Restart() error {
	d.mu.Lock()
	if d.sess.State != StateFinished {
		d.mu.Unlock()
		return ErrNotFinished
	}
	d.sess = d.sess.Restart()
	d.done = make(chan struct{})
	next := d.sess
	d.mu.Unlock()

	d.notify(next)
	return nil
}

// Close stops background work and waits for it to return.
func (d *Driver) Close() {
	d.mu.Lock()
	if d.stop != nil {
		d.stop()
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Driver) apply(fn func(Session) (Session, error)) error {
	d.mu.Lock()
	next, err := fn(d.sess)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.sess = next
	finished := d.finishedLocked()
	d.mu.Unlock()

	d.notify(next)
	d.afterFinish(finished)
	return nil
}

func (d *Driver) countdown(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = d.apply(func(s Session) (Session, error) { return s.Tick(), nil })
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (d *Driver) pause(ctx context.Context) {
	defer d.wg.Done()
	timer := time.NewTimer(d.cfg.ExplanationDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
		_ = d.apply(Session.Proceed)
	}
}

// finishedLocked closes done the first time the session is seen finished
// and returns the finished session to hand to OnFinish.
func (d *Driver) finishedLocked() *Session {
	if d.sess.State != StateFinished {
		return nil
	}
	select {
	case <-d.done:
		return nil
	default:
	}
	close(d.done)
	if d.stop != nil {
		d.stop()
	}
	s := d.sess
	return &s
}

func (d *Driver) afterFinish(s *Session) {
	if s == nil || d.cfg.OnFinish == nil {
		return
	}
	go d.cfg.OnFinish(*s)
}

func (d *Driver) notify(s Session) {
	if d.cfg.OnChange != nil {
		d.cfg.OnChange(s)
	}
}
