package coordinator

import (
	"time"

	"github.com/hpungsan/playscribe/internal/bus"
	"github.com/hpungsan/playscribe/internal/errors"
)

// Waiter lets a synchronous caller (a CLI command, an MCP handler, a test)
// block until the operation it issued settles. Subscribe before issuing the
// operation, then Wait.
type Waiter struct {
	b  *bus.Bus
	ch chan SettleInfo
}

// NewWaiter subscribes a waiter to OperationSettled on b.
func NewWaiter(b *bus.Bus) *Waiter {
	w := &Waiter{
		b:  b,
		ch: make(chan SettleInfo, 16),
	}
	b.Subscribe(w, bus.OperationSettled)
	return w
}

// OnEvent implements bus.Subscriber.
func (w *Waiter) OnEvent(e bus.Event) {
	info, ok := e.Payload.(SettleInfo)
	if !ok {
		return
	}
	select {
	case w.ch <- info:
	default:
		// A stalled waiter must not block the bus.
	}
}

// Wait blocks until the next operation settles or the timeout elapses.
func (w *Waiter) Wait(timeout time.Duration) (SettleInfo, error) {
	select {
	case info := <-w.ch:
		return info, nil
	case <-time.After(timeout):
		return SettleInfo{}, errors.NewInternal(errTimeout{})
	}
}

// Close unsubscribes the waiter.
func (w *Waiter) Close() {
	w.b.Unsubscribe(w, bus.OperationSettled)
}

type errTimeout struct{}

func (errTimeout) Error() string { return "timed out waiting for operation to settle" }
