package view

import (
	"context"

	"github.com/weftlabs/weft/patch"
)

// ViewBuilder is a declarative description of one node: its identity plus
// the current and future values of each of its facets. Builders are
// write-only accumulators; Decompose splits the accumulated streams into
// initial values and continuations, and Build materializes a live node.
//
// The With* methods return the builder for chaining.
type ViewBuilder struct {
	identity    ViewIdentity
	texts       []streamSource[string]
	attribs     []streamSource[patch.HashPatch[string, string]]
	boolAttribs []streamSource[patch.HashPatch[string, bool]]
	styles      []streamSource[patch.HashPatch[string, string]]
	children    []streamSource[patch.ListPatch[*ViewBuilder]]
	events      []EventBinding
	ops         []func(View) error
	tasks       []func(context.Context)
	decomposed  bool
}

// Element describes a container node with the given tag.
func Element(tag string) *ViewBuilder {
	return &ViewBuilder{
		identity: ViewIdentity{
			Kind: IdentityElement,
			Tag:  tag,
		},
	}
}

// ElementNS describes a container node with the given tag in the given
// namespace.
func ElementNS(tag string, namespace string) *ViewBuilder {
	return &ViewBuilder{
		identity: ViewIdentity{
			Kind:      IdentityElementNS,
			Tag:       tag,
			Namespace: namespace,
		},
	}
}

// Text describes a text node with the given initial value.
func Text(value string) *ViewBuilder {
	return &ViewBuilder{
		identity: ViewIdentity{
			Kind: IdentityText,
			Text: value,
		},
	}
}

// TextStream describes a text node driven by a stream. The node's initial
// value is the latest value buffered in the stream at build time, or the
// empty string.
func TextStream(st <-chan string) *ViewBuilder {
	return Text("").WithTextStream(st)
}

func (self *ViewBuilder) WithText(value string) *ViewBuilder {
	self.texts = append(self.texts, staticSource(value))
	return self
}

func (self *ViewBuilder) WithTextStream(st <-chan string) *ViewBuilder {
	self.texts = append(self.texts, chanSource(st))
	return self
}

func (self *ViewBuilder) WithAttrib(k string, v string) *ViewBuilder {
	self.attribs = append(self.attribs, staticSource(patch.Insert(k, v)))
	return self
}

func (self *ViewBuilder) WithAttribStream(st <-chan patch.HashPatch[string, string]) *ViewBuilder {
	self.attribs = append(self.attribs, chanSource(st))
	return self
}

// WithSingleAttribStream keeps the one attribute k updated from a stream
// of values.
func (self *ViewBuilder) WithSingleAttribStream(k string, st <-chan string) *ViewBuilder {
	self.attribs = append(self.attribs, mapSource(st, func(v string) []patch.HashPatch[string, string] {
		return []patch.HashPatch[string, string]{patch.Insert(k, v)}
	}))
	return self
}

func (self *ViewBuilder) WithBoolAttrib(k string, v bool) *ViewBuilder {
	self.boolAttribs = append(self.boolAttribs, staticSource(patch.Insert(k, v)))
	return self
}

func (self *ViewBuilder) WithBoolAttribStream(st <-chan patch.HashPatch[string, bool]) *ViewBuilder {
	self.boolAttribs = append(self.boolAttribs, chanSource(st))
	return self
}

// WithSingleBoolAttribStream keeps the one boolean attribute k updated
// from a stream of values.
func (self *ViewBuilder) WithSingleBoolAttribStream(k string, st <-chan bool) *ViewBuilder {
	self.boolAttribs = append(self.boolAttribs, mapSource(st, func(v bool) []patch.HashPatch[string, bool] {
		return []patch.HashPatch[string, bool]{patch.Insert(k, v)}
	}))
	return self
}

func (self *ViewBuilder) WithStyle(k string, v string) *ViewBuilder {
	self.styles = append(self.styles, staticSource(patch.Insert(k, v)))
	return self
}

// WithStyleText applies a whole "key: value; key: value" declaration
// block.
func (self *ViewBuilder) WithStyleText(text string) *ViewBuilder {
	self.styles = append(self.styles, staticSource(parseStyleText(text)...))
	return self
}

func (self *ViewBuilder) WithStyleStream(st <-chan patch.HashPatch[string, string]) *ViewBuilder {
	self.styles = append(self.styles, chanSource(st))
	return self
}

// WithSingleStyleStream keeps the one style property k updated from a
// stream of values.
func (self *ViewBuilder) WithSingleStyleStream(k string, st <-chan string) *ViewBuilder {
	self.styles = append(self.styles, mapSource(st, func(v string) []patch.HashPatch[string, string] {
		return []patch.HashPatch[string, string]{patch.Insert(k, v)}
	}))
	return self
}

// WithStyleTextStream applies each streamed declaration block as style
// patches.
func (self *ViewBuilder) WithStyleTextStream(st <-chan string) *ViewBuilder {
	self.styles = append(self.styles, mapSource(st, parseStyleText))
	return self
}

// WithChild appends a child node. The child builder is materialized lazily
// at build time.
func (self *ViewBuilder) WithChild(child *ViewBuilder) *ViewBuilder {
	self.children = append(self.children, staticSource(patch.Push(child)))
	return self
}

func (self *ViewBuilder) WithChildren(children ...*ViewBuilder) *ViewBuilder {
	for _, child := range children {
		self.WithChild(child)
	}
	return self
}

// WithChildStream drives the child list from a stream of list patches.
// Patched-in builders are materialized when their patch is applied, at
// most once each.
func (self *ViewBuilder) WithChildStream(st <-chan patch.ListPatch[*ViewBuilder]) *ViewBuilder {
	self.children = append(self.children, chanSource(st))
	return self
}

// WithEvent sends events with the given name arriving at the given target
// into the sink.
func (self *ViewBuilder) WithEvent(name string, target EventTarget, sink EventSink) *ViewBuilder {
	self.events = append(self.events, EventBinding{
		Name:   name,
		Target: target,
		Sink:   sink,
	})
	return self
}

// WithPostBuild runs f on the materialized node after all initial values
// are applied and before any continuation starts. An error aborts the
// build.
func (self *ViewBuilder) WithPostBuild(f func(View) error) *ViewBuilder {
	self.ops = append(self.ops, f)
	return self
}

// WithCaptureView delivers the materialized node into c from a background
// goroutine once the build completes.
func (self *ViewBuilder) WithCaptureView(c chan<- View) *ViewBuilder {
	return self.WithPostBuild(func(v View) error {
		go func() {
			c <- v
		}()
		return nil
	})
}

// WithTask runs f in its own goroutine once the node is materialized. The
// context is the build context.
func (self *ViewBuilder) WithTask(f func(context.Context)) *ViewBuilder {
	self.tasks = append(self.tasks, f)
	return self
}

// DecomposedViewBuilder is the split form of a builder: per facet, the
// values known at decompose time plus one merged continuation stream. A
// continuation for a facet with no registered streams is already closed.
type DecomposedViewBuilder struct {
	Identity ViewIdentity

	Texts      []string
	TextStream <-chan string

	Attribs      []patch.HashPatch[string, string]
	AttribStream <-chan patch.HashPatch[string, string]

	BoolAttribs      []patch.HashPatch[string, bool]
	BoolAttribStream <-chan patch.HashPatch[string, bool]

	Styles      []patch.HashPatch[string, string]
	StyleStream <-chan patch.HashPatch[string, string]

	Children    []patch.ListPatch[*ViewBuilder]
	ChildStream <-chan patch.ListPatch[*ViewBuilder]

	Events []EventBinding
	Ops    []func(View) error
	Tasks  []func(context.Context)
}

// Decompose consumes the builder, draining the synchronously available
// prefix of every registered stream and merging the remainders into one
// continuation per facet. Initial values keep registration order. For text
// nodes the drained text values fold into the identity, latest wins.
// Canceling ctx ends the merge goroutines behind the continuation streams;
// pass the same ctx the node will be built with.
//
// A builder can only be decomposed once; a second call panics.
func (self *ViewBuilder) Decompose(ctx context.Context) *DecomposedViewBuilder {
	if self.decomposed {
		panic("view builder already decomposed")
	}
	self.decomposed = true

	decomposed := &DecomposedViewBuilder{
		Identity: self.identity,
		Events:   self.events,
		Ops:      self.ops,
		Tasks:    self.tasks,
	}
	decomposed.Texts, decomposed.TextStream = resolveSources(ctx, self.texts)
	decomposed.Attribs, decomposed.AttribStream = resolveSources(ctx, self.attribs)
	decomposed.BoolAttribs, decomposed.BoolAttribStream = resolveSources(ctx, self.boolAttribs)
	decomposed.Styles, decomposed.StyleStream = resolveSources(ctx, self.styles)
	decomposed.Children, decomposed.ChildStream = resolveSources(ctx, self.children)

	if self.identity.Kind == IdentityText && 0 < len(decomposed.Texts) {
		decomposed.Identity.Text = decomposed.Texts[len(decomposed.Texts)-1]
		decomposed.Texts = nil
	}
	return decomposed
}
