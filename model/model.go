// Package model wraps shared values with update streams.
//
// A Model broadcasts its latest state to subscribers lossily: a slow
// reader may skip intermediate writes but always eventually observes the
// most recent one. The patch models (ListPatchModel, HashPatchModel)
// broadcast the patches applied to their backing collection losslessly and
// in order, which is what lets two isomorphic structures be kept in sync
// purely by patch replay.
package model

import (
	"sync"

	"github.com/weftlabs/weft/txrx"
)

// Model wraps a value T and broadcasts updates to subscribers.
//
// Every write is eventually visible to every live subscriber, but
// intermediate writes between two reads by a slow reader may be skipped.
// Only the most recent unread value survives.
type Model[T any] struct {
	stateLock sync.RWMutex
	value     T
	tx        *txrx.Transmitter[T]
	subs      []*modelSub[T]
	closed    bool
}

type modelSub[T any] struct {
	c  chan T
	rx *txrx.Receiver[T]
}

func NewModel[T any](value T) *Model[T] {
	return &Model[T]{
		value: value,
		tx:    txrx.NewTransmitter[T](),
	}
}

// Visit reads the value under a shared lock. Concurrent visits proceed
// freely; visits block while a mutation is in progress.
func (self *Model[T]) Visit(f func(T)) {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	f(self.value)
}

func (self *Model[T]) Get() T {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	return self.value
}

// VisitMut exclusively locks the value, mutates it in place, and
// broadcasts the new state to all subscribers before returning.
func (self *Model[T]) VisitMut(f func(*T)) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	f(&self.value)
	self.tx.Send(self.value)
}

// Replace swaps in a new value and returns the old one.
func (self *Model[T]) Replace(value T) T {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	previous := self.value
	self.value = value
	self.tx.Send(self.value)
	return previous
}

// Subscribe returns a stream of model states, seeded with the state at
// subscribe time. The stream has capacity one and overflows by dropping
// the oldest unread state, so a reader only ever observes the latest
// state, never a backlog. The stream is closed by Close.
func (self *Model[T]) Subscribe() <-chan T {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	c := make(chan T, 1)
	if self.closed {
		close(c)
		return c
	}
	c <- self.value

	rx := self.tx.NewReceiver()
	rx.Respond(func(value T) {
		// drop the oldest unread state to make room
		for {
			select {
			case c <- value:
				return
			default:
			}
			select {
			case <-c:
			default:
			}
		}
	})
	self.subs = append(self.subs, &modelSub[T]{
		c:  c,
		rx: rx,
	})
	return c
}

// Close ends all subscriber streams. Values already buffered remain
// readable; no further values arrive.
func (self *Model[T]) Close() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.closed {
		return
	}
	self.closed = true
	for _, sub := range self.subs {
		sub.rx.DropResponder()
		close(sub.c)
	}
	self.subs = nil
}
