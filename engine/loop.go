package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	goruntime "runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/example/jsbind/logging"
)

var (
	// ErrLoopClosed is returned when work is posted to a stopped loop.
	ErrLoopClosed = errors.New("engine: loop closed")
	// ErrLoopRunning is returned when Run is called on a running loop.
	ErrLoopRunning = errors.New("engine: loop already running")
)

// Task is a unit of work executed on the loop goroutine.
type Task func(c *Context)

// LoopOptions configures a Loop.
type LoopOptions struct {
	Logger logging.Logger
}

// Loop is the single-threaded execution context of a Context. Every
// operation touching script values runs on the goroutine executing Run.
type Loop struct {
	ctx    *Context
	logger logging.Logger

	mu      sync.Mutex
	queue   []Task
	closed  bool
	running bool
	wake    chan struct{}

	owner atomic.Uint64
}

// NewLoop creates a loop for c. The loop does nothing until Run is called.
func NewLoop(c *Context, optFns ...func(o *LoopOptions)) *Loop {
	opts := LoopOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Loop{
		ctx:    c,
		logger: logging.Component(opts.Logger, "loop"),
		wake:   make(chan struct{}, 1),
	}
}

// Context returns the loop's context. Only use it from loop tasks.
func (l *Loop) Context() *Context { return l.ctx }

// Run executes posted tasks until ctx is cancelled. Tasks still queued when
// ctx is cancelled are executed before Run returns; tasks posted afterwards
// are rejected with ErrLoopClosed.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrLoopRunning
	}
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.running = true
	l.mu.Unlock()

	l.owner.Store(goroutineID())
	defer l.owner.Store(0)

	l.logger.Debug("loop started")
	for {
		l.drain()
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			l.running = false
			l.mu.Unlock()
			l.drain()
			l.logger.Debug("loop stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		tasks := l.queue
		l.queue = nil
		l.mu.Unlock()
		if len(tasks) == 0 {
			return
		}
		for _, task := range tasks {
			l.execute(task)
		}
	}
}

func (l *Loop) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("recovered panic in loop task", "panic", fmt.Sprint(r))
		}
	}()
	task(l.ctx)
}

// Post enqueues task for execution on the loop goroutine.
func (l *Loop) Post(task Task) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// OnLoop reports whether the caller runs on the loop goroutine.
func (l *Loop) OnLoop() bool {
	owner := l.owner.Load()
	return owner != 0 && owner == goroutineID()
}

// SyncWithJavascript runs task on the loop goroutine. Called from a loop
// task it runs inline, so host code invoked by script may call back into
// script; otherwise it is enqueued and SyncWithJavascript returns at once.
func (l *Loop) SyncWithJavascript(task Task) error {
	if l.OnLoop() {
		task(l.ctx)
		return nil
	}
	return l.Post(task)
}

// Do runs fn on the loop and waits for it to finish or for ctx to be done.
func (l *Loop) Do(ctx context.Context, fn func(c *Context) error) error {
	if l.OnLoop() {
		return fn(l.ctx)
	}
	done := make(chan error, 1)
	err := l.Post(func(c *Context) {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in loop task: %v", r)
			}
			done <- err
		}()
		err = fn(c)
	})
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the id of the calling goroutine from its stack header.
func goroutineID() uint64 {
	var buf [64]byte
	n := goruntime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
