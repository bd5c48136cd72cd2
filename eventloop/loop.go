package eventloop

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Task is a unit of work run on the loop goroutine.
type Task func(ctx context.Context) error

// Loop is a single-threaded cooperative scheduler. Only Post, Hold and the
// release function returned by Hold may be called from other goroutines.
type Loop struct {
	clock  Clock
	logger *zap.Logger

	micro  []Task
	timers timerHeap
	byID   map[TimerID]*timer
	nextID TimerID
	seq    uint64
	errs   error

	mu     sync.Mutex
	posted []Task
	holds  int
	wake   chan struct{}
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithLogger sets the logger used for task failures.
func WithLogger(lg *zap.Logger) Option {
	return func(l *Loop) { l.logger = lg }
}

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		clock:  SystemClock{},
		logger: zap.NewNop(),
		byID:   make(map[TimerID]*timer),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Clock returns the loop's time source.
func (l *Loop) Clock() Clock { return l.clock }

// QueueMicrotask schedules task to run before the next macrotask.
func (l *Loop) QueueMicrotask(task Task) {
	l.micro = append(l.micro, task)
}

// Post hands a task to the loop from any goroutine.
func (l *Loop) Post(task Task) {
	l.mu.Lock()
	l.posted = append(l.posted, task)
	l.mu.Unlock()
	l.signal()
}

// Hold marks an outstanding external operation so Run does not return
// while it is in flight. The returned function releases the hold; calling
// it more than once has no further effect.
func (l *Loop) Hold() (release func()) {
	l.mu.Lock()
	l.holds++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.holds--
			l.mu.Unlock()
			l.signal()
		})
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether any work remains: microtasks, timers, posted
// tasks or held external operations.
func (l *Loop) Pending() bool {
	if len(l.micro) > 0 || len(l.byID) > 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posted) > 0 || l.holds > 0
}

func (l *Loop) run(ctx context.Context, task Task) {
	if err := task(ctx); err != nil {
		l.logger.Debug("task failed", zap.Error(err))
		l.errs = multierr.Append(l.errs, err)
	}
}

// DrainMicrotasks runs queued microtasks, including ones they queue.
func (l *Loop) DrainMicrotasks(ctx context.Context) {
	for len(l.micro) > 0 {
		task := l.micro[0]
		l.micro[0] = nil
		l.micro = l.micro[1:]
		l.run(ctx, task)
	}
}

func (l *Loop) takePosted() []Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	posted := l.posted
	l.posted = nil
	return posted
}

// RunPending runs everything that is ready now without waiting: posted
// tasks, microtasks and due timers. It returns the failures of the tasks it
// ran.
func (l *Loop) RunPending(ctx context.Context) error {
	l.runReady(ctx)
	return l.takeErrs()
}

func (l *Loop) runReady(ctx context.Context) {
	for {
		ran := false
		for _, task := range l.takePosted() {
			ran = true
			l.run(ctx, task)
			l.DrainMicrotasks(ctx)
		}
		l.DrainMicrotasks(ctx)

		if t := l.popDue(l.clock.Now()); t != nil {
			ran = true
			l.run(ctx, t.task)
			l.DrainMicrotasks(ctx)
		}
		if !ran || ctx.Err() != nil {
			return
		}
	}
}

func (l *Loop) takeErrs() error {
	err := l.errs
	l.errs = nil
	return err
}

// Run drives the loop until no work remains or ctx is done. Task failures
// do not stop the loop; they are combined into the returned error.
func (l *Loop) Run(ctx context.Context) error {
	return l.RunUntil(ctx, func() bool { return false })
}

// RunUntil drives the loop until done reports true, the loop is idle or
// ctx is done.
func (l *Loop) RunUntil(ctx context.Context, done func() bool) error {
	for {
		l.runReady(ctx)
		if done() || !l.Pending() {
			return l.takeErrs()
		}
		if err := ctx.Err(); err != nil {
			return multierr.Append(l.takeErrs(), err)
		}

		var fire <-chan time.Time
		if deadline, ok := l.nextDeadline(); ok {
			fire = l.clock.After(deadline.Sub(l.clock.Now()))
		}
		select {
		case <-ctx.Done():
		case <-l.wake:
		case <-fire:
		}
	}
}
