package model

import (
	"context"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/weftlabs/weft/patch"
	"github.com/weftlabs/weft/txrx"
)

// patchSub is one lossless subscription. The producer appends under a lock
// and a pump goroutine drains into the outward channel, so delivery never
// fails and never drops; memory use is proportional to the subscriber's
// lag. After close the remaining backlog is flushed before the outward
// channel is closed.
type patchSub[P any] struct {
	stateLock sync.Mutex
	backlog   []P
	closed    bool
	notify    chan struct{}
	out       chan P
}

func newPatchSub[P any](ctx context.Context) *patchSub[P] {
	sub := &patchSub[P]{
		notify: make(chan struct{}, 1),
		out:    make(chan P),
	}
	go sub.pump(ctx)
	return sub
}

func (self *patchSub[P]) push(p P) {
	self.stateLock.Lock()
	if self.closed {
		self.stateLock.Unlock()
		return
	}
	self.backlog = append(self.backlog, p)
	self.stateLock.Unlock()

	select {
	case self.notify <- struct{}{}:
	default:
	}
}

func (self *patchSub[P]) close() {
	self.stateLock.Lock()
	self.closed = true
	self.stateLock.Unlock()

	select {
	case self.notify <- struct{}{}:
	default:
	}
}

func (self *patchSub[P]) pump(ctx context.Context) {
	defer close(self.out)
	for {
		self.stateLock.Lock()
		var next P
		ok := false
		closed := self.closed
		if 0 < len(self.backlog) {
			next = self.backlog[0]
			self.backlog = self.backlog[1:]
			ok = true
		}
		self.stateLock.Unlock()

		if ok {
			select {
			case self.out <- next:
			case <-ctx.Done():
				return
			}
			continue
		}
		if closed {
			return
		}
		select {
		case <-self.notify:
		case <-ctx.Done():
			return
		}
	}
}

// ListPatchModel wraps a list of T and broadcasts every applied
// ListPatch to subscribers losslessly and in apply order.
type ListPatchModel[T any] struct {
	stateLock sync.Mutex
	items     []T
	tx        *txrx.Transmitter[patch.ListPatch[T]]
	subs      []*patchSub[patch.ListPatch[T]]
	rxs       []*txrx.Receiver[patch.ListPatch[T]]
	closed    bool
}

func NewListPatchModel[T any](items ...T) *ListPatchModel[T] {
	return &ListPatchModel[T]{
		items: slices.Clone(items),
		tx:    txrx.NewTransmitter[patch.ListPatch[T]](),
	}
}

// Visit reads the backing list under the lock.
func (self *ListPatchModel[T]) Visit(f func([]T)) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	f(self.items)
}

// Snapshot returns a copy of the backing list.
func (self *ListPatchModel[T]) Snapshot() []T {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return slices.Clone(self.items)
}

func (self *ListPatchModel[T]) Len() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.items)
}

func (self *ListPatchModel[T]) Get(i int) (T, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if i < 0 || len(self.items) <= i {
		var empty T
		return empty, false
	}
	return self.items[i], true
}

// Patch visits the list with a function that produces an update, applies
// the update, and broadcasts it, all in one critical section. Returns the
// removed items, if any.
func (self *ListPatchModel[T]) Patch(f func([]T) (patch.ListPatch[T], bool)) []T {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	p, ok := f(self.items)
	if !ok {
		return nil
	}
	removed := patch.ApplyList(&self.items, p)
	self.tx.Send(p)
	return removed
}

// Apply applies the patch and broadcasts it. Returns the removed items.
func (self *ListPatchModel[T]) Apply(p patch.ListPatch[T]) []T {
	return self.Patch(func([]T) (patch.ListPatch[T], bool) {
		return p, true
	})
}

func (self *ListPatchModel[T]) Push(item T) {
	self.Apply(patch.Push(item))
}

func (self *ListPatchModel[T]) Pop() (T, bool) {
	removed := self.Apply(patch.Pop[T]())
	if len(removed) == 0 {
		var empty T
		return empty, false
	}
	return removed[0], true
}

func (self *ListPatchModel[T]) Splice(start int, end int, items ...T) []T {
	return self.Apply(patch.Splice(start, end, items...))
}

func (self *ListPatchModel[T]) Drain() []T {
	return self.Apply(patch.Drain[T]())
}

// Receiver spawns a receiver of the model's patch channel, for wiring the
// model into the channel algebra. Responders run synchronously on the
// patching goroutine while the model's lock is held, so a responder must
// not call back into this model; use Subscribe for decoupled delivery.
func (self *ListPatchModel[T]) Receiver() *txrx.Receiver[patch.ListPatch[T]] {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	rx := self.tx.NewReceiver()
	self.rxs = append(self.rxs, rx)
	return rx
}

// Subscribe returns a lossless, ordered stream of every patch applied
// after this call. The stream ends when ctx is canceled or the model is
// closed (after flushing any backlog).
func (self *ListPatchModel[T]) Subscribe(ctx context.Context) <-chan patch.ListPatch[T] {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.subscribeLocked(ctx)
}

// SnapshotAndSubscribe returns the current items together with a stream of
// every patch applied after the snapshot, in one critical section. A patch
// appears either in the snapshot or in the stream, never both, so the
// snapshot plus replay reconstructs the list exactly.
func (self *ListPatchModel[T]) SnapshotAndSubscribe(ctx context.Context) ([]T, <-chan patch.ListPatch[T]) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return slices.Clone(self.items), self.subscribeLocked(ctx)
}

func (self *ListPatchModel[T]) subscribeLocked(ctx context.Context) <-chan patch.ListPatch[T] {
	sub := newPatchSub[patch.ListPatch[T]](ctx)
	if self.closed {
		sub.close()
		return sub.out
	}
	rx := self.tx.NewReceiver()
	rx.Respond(func(p patch.ListPatch[T]) {
		sub.push(p)
	})
	self.subs = append(self.subs, sub)
	self.rxs = append(self.rxs, rx)
	return sub.out
}

// Close ends all subscriber streams after their backlogs flush.
func (self *ListPatchModel[T]) Close() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.closed {
		return
	}
	self.closed = true
	for _, rx := range self.rxs {
		rx.DropResponder()
	}
	for _, sub := range self.subs {
		sub.close()
	}
	self.subs = nil
	self.rxs = nil
}

// HashPatchModel wraps a map of K to V and broadcasts every applied
// HashPatch to subscribers losslessly and in apply order.
type HashPatchModel[K comparable, V any] struct {
	stateLock sync.Mutex
	values    map[K]V
	tx        *txrx.Transmitter[patch.HashPatch[K, V]]
	subs      []*patchSub[patch.HashPatch[K, V]]
	rxs       []*txrx.Receiver[patch.HashPatch[K, V]]
	closed    bool
}

func NewHashPatchModel[K comparable, V any]() *HashPatchModel[K, V] {
	return &HashPatchModel[K, V]{
		values: map[K]V{},
		tx:     txrx.NewTransmitter[patch.HashPatch[K, V]](),
	}
}

func (self *HashPatchModel[K, V]) Visit(f func(map[K]V)) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	f(self.values)
}

func (self *HashPatchModel[K, V]) Snapshot() map[K]V {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return maps.Clone(self.values)
}

func (self *HashPatchModel[K, V]) Get(k K) (V, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	v, ok := self.values[k]
	return v, ok
}

func (self *HashPatchModel[K, V]) Len() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.values)
}

// Apply applies the patch and broadcasts it. Returns the displaced value,
// if any.
func (self *HashPatchModel[K, V]) Apply(p patch.HashPatch[K, V]) (V, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	previous, ok := patch.ApplyHash(self.values, p)
	self.tx.Send(p)
	return previous, ok
}

func (self *HashPatchModel[K, V]) Insert(k K, v V) (V, bool) {
	return self.Apply(patch.Insert(k, v))
}

func (self *HashPatchModel[K, V]) Remove(k K) (V, bool) {
	return self.Apply(patch.Remove[K, V](k))
}

// Receiver spawns a receiver of the model's patch channel. Responders run
// synchronously on the patching goroutine while the model's lock is held,
// so a responder must not call back into this model; use Subscribe for
// decoupled delivery.
func (self *HashPatchModel[K, V]) Receiver() *txrx.Receiver[patch.HashPatch[K, V]] {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	rx := self.tx.NewReceiver()
	self.rxs = append(self.rxs, rx)
	return rx
}

// Subscribe returns a lossless, ordered stream of every patch applied
// after this call. The stream ends when ctx is canceled or the model is
// closed (after flushing any backlog).
func (self *HashPatchModel[K, V]) Subscribe(ctx context.Context) <-chan patch.HashPatch[K, V] {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	sub := newPatchSub[patch.HashPatch[K, V]](ctx)
	if self.closed {
		sub.close()
		return sub.out
	}
	rx := self.tx.NewReceiver()
	rx.Respond(func(p patch.HashPatch[K, V]) {
		sub.push(p)
	})
	self.subs = append(self.subs, sub)
	self.rxs = append(self.rxs, rx)
	return sub.out
}

func (self *HashPatchModel[K, V]) Close() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.closed {
		return
	}
	self.closed = true
	for _, rx := range self.rxs {
		rx.DropResponder()
	}
	for _, sub := range self.subs {
		sub.close()
	}
	self.subs = nil
	self.rxs = nil
}
