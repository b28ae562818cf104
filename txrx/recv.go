package txrx

import (
	"context"
	"sync"
)

// Recv returns a one-shot channel that yields the next message delivered
// to a fresh branch of this receiver, then closes. The branch's responder
// is dropped after the first delivery, so the result resolves exactly once
// per call.
func (self *Receiver[A]) Recv() <-chan A {
	out := make(chan A, 1)
	branch := self.Branch()
	var once sync.Once
	branch.Respond(func(a A) {
		once.Do(func() {
			out <- a
			close(out)
			branch.DropResponder()
		})
	})
	return out
}

// RecvStream returns a stream of every message delivered to a fresh
// branch of this receiver, in delivery order, with no drops. Messages are
// buffered without bound while the consumer lags; memory use is
// proportional to the consumer's lag. The stream ends when ctx is
// canceled.
func (self *Receiver[A]) RecvStream(ctx context.Context) <-chan A {
	q := newLossless[A]()
	branch := self.Branch()
	branch.Respond(func(a A) {
		q.push(a)
	})
	out := make(chan A)
	go func() {
		defer close(out)
		defer branch.DropResponder()
		for {
			a, ok, closed := q.pop()
			if ok {
				select {
				case out <- a:
				case <-ctx.Done():
					return
				}
				continue
			}
			if closed {
				return
			}
			select {
			case <-q.notify:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// lossless is an unbounded FIFO between a synchronous producer and one
// pump goroutine. This is the queue behind the guaranteed, ordered,
// no-drop delivery of RecvStream and the patch models.
type lossless[A any] struct {
	stateLock sync.Mutex
	items     []A
	closed    bool
	notify    chan struct{}
}

func newLossless[A any]() *lossless[A] {
	return &lossless[A]{
		notify: make(chan struct{}, 1),
	}
}

func (self *lossless[A]) push(a A) {
	self.stateLock.Lock()
	if self.closed {
		self.stateLock.Unlock()
		return
	}
	self.items = append(self.items, a)
	self.stateLock.Unlock()

	select {
	case self.notify <- struct{}{}:
	default:
	}
}

// pop returns the next item if any, plus whether the queue is closed.
// After close, remaining items are still drained in order.
func (self *lossless[A]) pop() (A, bool, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if len(self.items) == 0 {
		var empty A
		return empty, false, self.closed
	}
	a := self.items[0]
	self.items = self.items[1:]
	return a, true, false
}

func (self *lossless[A]) close() {
	self.stateLock.Lock()
	self.closed = true
	self.stateLock.Unlock()

	select {
	case self.notify <- struct{}{}:
	default:
	}
}
