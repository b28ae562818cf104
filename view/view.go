// Package view turns declarative node descriptions into live, self-updating
// trees.
//
// A ViewBuilder accumulates streams of future values for one node: texts,
// attribute patches, style patches, child-list patches, event bindings,
// post-build funcs and background tasks. Decomposing the builder splits
// every stream into the values known synchronously right now and a live
// continuation. Building materializes a concrete node from the initial
// values and spawns one continuation goroutine per category that keeps
// mutating the node as later values arrive. Initial values are applied
// before any continuation starts, so a reader never observes stale state
// and no initial value is applied twice.
package view

import (
	"github.com/weftlabs/weft/patch"
)

type ViewIdentityKind int

const (
	IdentityElement ViewIdentityKind = iota
	IdentityElementNS
	IdentityText
)

// ViewIdentity is the construction argument of a node: a tag (optionally
// namespaced) for container nodes, or the initial value for text nodes.
type ViewIdentity struct {
	Kind      ViewIdentityKind
	Tag       string
	Namespace string
	Text      string
}

// EventTarget selects where an event binding attaches.
type EventTarget int

const (
	// the node itself
	TargetThis EventTarget = iota
	// the outermost scope of the target environment
	TargetWindow
	// the document scope of the target environment
	TargetDocument
)

func (self EventTarget) String() string {
	switch self {
	case TargetWindow:
		return "window"
	case TargetDocument:
		return "document"
	default:
		return "this"
	}
}

// EventSink accepts events fired on a bound node.
// A *txrx.Transmitter[any] is an EventSink.
type EventSink interface {
	Send(event any)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(event any)

func (self EventSinkFunc) Send(event any) {
	self(event)
}

// EventBinding declares that events with the given name arriving at the
// given target should be sent into the sink.
type EventBinding struct {
	Name   string
	Target EventTarget
	Sink   EventSink
}

// Resources constructs concrete nodes for a target environment.
type Resources interface {
	NewElement(tag string, namespace string) (View, error)
	NewText(value string) (View, error)
}

// View is a handle to one live node of the target environment. Handles
// must be cheaply shareable, with all copies referring to the same
// underlying node.
//
// SetText fails on container nodes; the Patch* and child operations fail
// on text nodes.
type View interface {
	SetText(value string) error
	PatchAttribute(p patch.HashPatch[string, string]) error
	PatchBooleanAttribute(p patch.HashPatch[string, bool]) error
	PatchStyle(p patch.HashPatch[string, string]) error
	BindEvent(target EventTarget, name string, sink EventSink) error
	ChildCount() int
	InsertChild(i int, child View) error
	RemoveChild(i int) (View, error)
	ReplaceChild(i int, child View) (View, error)
}
