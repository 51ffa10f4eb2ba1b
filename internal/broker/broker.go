package broker

import (
	"fmt"
	"sync"

	"github.com/hpungsan/playscribe/internal/errors"
)

// Broker owns exactly one background execution unit, spawned lazily on the
// first Send. Envelopes are processed strictly in FIFO order, one at a time,
// and the settled envelope is handed to the update callback in that same
// order. Send never blocks and never fails from the caller's perspective;
// spawn problems are reported through the dedicated error callback instead.
type Broker struct {
	update     func(*Envelope)
	onSpawnErr func(error)

	// run executes one envelope; replaced in tests to control timing.
	run func(*Envelope)

	// spawn starts the worker; replaced in tests to force spawn faults.
	spawn func(func()) error

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*Envelope
	started  bool
	disposed bool
	done     chan struct{}
}

// Option configures a Broker.
type Option func(*Broker)

// WithSpawn overrides how the execution unit is started. Tests use it to
// force spawn faults.
func WithSpawn(spawn func(func()) error) Option {
	return func(b *Broker) { b.spawn = spawn }
}

// WithRunner overrides how one envelope is executed. Tests use it to control
// per-envelope timing.
func WithRunner(run func(*Envelope)) Option {
	return func(b *Broker) { b.run = run }
}

// New creates a broker delivering settled envelopes to update. onSpawnErr
// receives faults from the execution unit itself (it could not start), which
// are distinct from application-level Failure results; it may be nil.
func New(update func(*Envelope), onSpawnErr func(error), opts ...Option) *Broker {
	b := &Broker{
		update:     update,
		onSpawnErr: onSpawnErr,
		run:        Execute,
		done:       make(chan struct{}),
	}
	b.spawn = func(fn func()) error {
		go fn()
		return nil
	}
	b.cond = sync.NewCond(&b.mu)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Send enqueues env for execution. Fire-and-forget: the result arrives later
// through the update callback. If the execution unit cannot be started, the
// error callback fires once for this send and no result envelope is ever
// delivered for it. Sending to a disposed broker is a no-op.
func (b *Broker) Send(env *Envelope) {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}
	if !b.started {
		if err := b.spawn(b.loop); err != nil {
			b.mu.Unlock()
			if b.onSpawnErr != nil {
				b.onSpawnErr(errors.NewSpawnFault(err))
			}
			return
		}
		b.started = true
	}
	b.queue = append(b.queue, env)
	b.cond.Signal()
	b.mu.Unlock()
}

// Dispose drains queued work, stops the execution unit, and returns once it
// has exited. Idempotent: calling it again is a no-op.
func (b *Broker) Dispose() {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}
	b.disposed = true
	started := b.started
	b.cond.Broadcast()
	b.mu.Unlock()

	if started {
		<-b.done
	}
}

// loop is the background execution unit: a single consumer draining the FIFO
// queue. It exits only after disposal, once the queue is empty.
func (b *Broker) loop() {
	defer close(b.done)
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.disposed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		env := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		b.process(env)
		if b.update != nil {
			b.update(env)
		}
	}
}

// process runs one envelope with failure containment: any panic raised during
// execution is converted to a Failure result and never propagates past the
// worker boundary.
func (b *Broker) process(env *Envelope) {
	defer func() {
		if r := recover(); r != nil {
			env.fail(errors.NewInternal(fmt.Errorf("worker panic: %v", r)))
		}
	}()
	b.run(env)
	if !env.Settled() {
		env.fail(errors.NewInternal(fmt.Errorf("command %s left envelope pending", env.Command)))
	}
}
