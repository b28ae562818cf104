// Package txrx is a synchronous publish/subscribe channel algebra.
//
// A channel is a linked Transmitter/Receiver pair sharing one responder
// registry. Sending runs every live responder immediately on the caller's
// goroutine. Combinators (fold, filter, map, branch, merge, wire) extend
// channels with optional internal or shared state, so arbitrary producers
// can be wired to arbitrary consumers.
package txrx

import (
	"runtime/debug"
	"sync"

	"github.com/golang/glog"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// responders is the registry shared by all handles derived from one
// channel. Ids are allocated monotonically and never reused while the
// registry is shared.
type responders[A any] struct {
	stateLock sync.Mutex
	nextId    int
	callbacks map[int]func(A)
}

func newResponders[A any]() *responders[A] {
	return &responders[A]{
		callbacks: map[int]func(A){},
	}
}

func (self *responders[A]) allocId() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	id := self.nextId
	self.nextId += 1
	return id
}

func (self *responders[A]) insert(id int, callback func(A)) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.callbacks[id] = callback
}

func (self *responders[A]) remove(id int) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	delete(self.callbacks, id)
}

// snapshot the current id set so that inserts and removes during a send
// apply to the next send, and so that re-entrant sends do not deadlock on
// the registry lock.
func (self *responders[A]) snapshot() []func(A) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	ids := maps.Keys(self.callbacks)
	slices.Sort(ids)
	callbacks := make([]func(A), 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, self.callbacks[id])
	}
	return callbacks
}

func (self *responders[A]) send(a A) {
	for _, callback := range self.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					glog.Warningf("[txrx]responder panic suppressed: %v\n%s", r, debug.Stack())
				}
			}()
			callback(a)
		}()
	}
}

// Transmitter is the send side of one channel. Transmitters are freely
// shareable between goroutines.
type Transmitter[A any] struct {
	responders *responders[A]
}

// NewTransmitter creates a transmitter with no receivers yet.
func NewTransmitter[A any]() *Transmitter[A] {
	return &Transmitter[A]{
		responders: newResponders[A](),
	}
}

// Send invokes every live responder with a, synchronously, on the caller's
// goroutine. A responder that panics is logged and skipped; delivery to the
// remaining responders continues.
func (self *Transmitter[A]) Send(a A) {
	self.responders.send(a)
}

func (self *Transmitter[A]) SendMany(msgs []A) {
	for _, a := range msgs {
		self.Send(a)
	}
}

// NewReceiver spawns a receiver for this transmitter with its own registry
// slot and no initial response.
func (self *Transmitter[A]) NewReceiver() *Receiver[A] {
	return newReceiver(self.responders)
}

// Receiver is the receive side of one channel. A receiver owns exactly one
// registry slot; it installs at most one callback via Respond and is
// duplicated only via Branch, which allocates an independent slot on the
// same source.
type Receiver[A any] struct {
	id         int
	responders *responders[A]
}

func newReceiver[A any](responders *responders[A]) *Receiver[A] {
	return &Receiver[A]{
		id:         responders.allocId(),
		responders: responders,
	}
}

// NewReceiver creates a receiver with no transmitter yet.
// Use NewTransmitter on the result to feed it.
func NewReceiver[A any]() *Receiver[A] {
	return newReceiver(newResponders[A]())
}

// Respond sets the response this receiver has to messages. The response
// runs immediately on each message, on the sender's goroutine.
func (self *Receiver[A]) Respond(f func(A)) {
	self.responders.insert(self.id, f)
}

// DropResponder removes the responder from the registry, releasing
// anything it owns. An in-flight send already past the removal point still
// completes for this responder.
func (self *Receiver[A]) DropResponder() {
	self.responders.remove(self.id)
}

// NewTransmitter spawns a transmitter that sends to this receiver.
func (self *Receiver[A]) NewTransmitter() *Transmitter[A] {
	return &Transmitter[A]{
		responders: self.responders,
	}
}

// Branch creates a sibling receiver fed by the same source, with its own
// registry slot and no initial response.
func (self *Receiver[A]) Branch() *Receiver[A] {
	return newReceiver(self.responders)
}

// Channel creates a linked Transmitter/Receiver pair.
func Channel[A any]() (*Transmitter[A], *Receiver[A]) {
	tx := NewTransmitter[A]()
	return tx, tx.NewReceiver()
}

// RespondShared sets a response that folds each message over shared state.
func RespondShared[T any, A any](rx *Receiver[A], state *Shared[T], f func(*T, A)) {
	rx.Respond(func(a A) {
		state.Visit(func(t *T) {
			f(t, a)
		})
	})
}

// Merge the receivers into one. Any time a message is received on any
// input receiver it is sent to the returned receiver. Only per-source FIFO
// order is preserved.
func Merge[A any](rxs ...*Receiver[A]) *Receiver[A] {
	tx, rx := Channel[A]()
	for _, rxIn := range rxs {
		rxIn.Branch().Respond(func(a A) {
			tx.Send(a)
		})
	}
	return rx
}

// Shared is a mutex-guarded value used as shared fold state by the
// *Shared combinator variants.
type Shared[T any] struct {
	stateLock sync.Mutex
	value     T
}

func NewShared[T any](value T) *Shared[T] {
	return &Shared[T]{
		value: value,
	}
}

// Visit exclusively locks the value and passes it to f for mutation.
func (self *Shared[T]) Visit(f func(*T)) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	f(&self.value)
}

func (self *Shared[T]) Get() T {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.value
}

func (self *Shared[T]) Set(value T) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.value = value
}
