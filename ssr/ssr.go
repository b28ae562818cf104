// Package ssr renders live views server side. A Tree hands out Nodes that
// satisfy the view contract, so the same builder that drives a client
// environment can be materialized here and serialized to HTML at any
// point, with later stream values reflected in later renders.
package ssr

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/weftlabs/weft/patch"
	"github.com/weftlabs/weft/view"
)

// comparable
type NodeId [16]byte

func NewNodeId() NodeId {
	return NodeId(ulid.Make())
}

func (self NodeId) String() string {
	return ulid.ULID(self).String()
}

// Tree is the server side node factory. It also carries the event
// bindings that outlive any one node: those attached to the window or
// document scope.
type Tree struct {
	stateLock sync.Mutex

	windowBindings   []view.EventBinding
	documentBindings []view.EventBinding
}

func NewTree() *Tree {
	return &Tree{}
}

func (self *Tree) NewElement(tag string, namespace string) (view.View, error) {
	if tag == "" {
		return nil, errors.New("empty tag")
	}
	return &Node{
		tree:      self,
		id:        NewNodeId(),
		tag:       tag,
		namespace: namespace,
	}, nil
}

func (self *Tree) NewText(value string) (view.View, error) {
	return &Node{
		tree: self,
		id:   NewNodeId(),
		text: value,
		leaf: true,
	}, nil
}

func (self *Tree) bind(binding view.EventBinding) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	switch binding.Target {
	case view.TargetWindow:
		self.windowBindings = append(self.windowBindings, binding)
	case view.TargetDocument:
		self.documentBindings = append(self.documentBindings, binding)
	}
}

// Fire delivers an event to every window or document scoped sink bound
// under the given name. Returns the number of sinks reached.
func (self *Tree) Fire(target view.EventTarget, name string, event any) int {
	self.stateLock.Lock()
	bindings := []view.EventBinding{}
	switch target {
	case view.TargetWindow:
		bindings = append(bindings, self.windowBindings...)
	case view.TargetDocument:
		bindings = append(bindings, self.documentBindings...)
	}
	self.stateLock.Unlock()

	count := 0
	for _, binding := range bindings {
		if binding.Name == name {
			binding.Sink.Send(event)
			count += 1
		}
	}
	return count
}

// Node is one server side node, either a container with a tag or a text
// leaf. All mutations take the node's lock, so continuation goroutines for
// different facets can update one node concurrently.
type Node struct {
	tree *Tree
	id   NodeId

	stateLock sync.Mutex

	leaf bool
	text string

	tag         string
	namespace   string
	attribs     []patch.Pair[string, string]
	boolAttribs []patch.Pair[string, bool]
	styles      []patch.Pair[string, string]
	bindings    []view.EventBinding
	children    []*Node
}

func (self *Node) Id() NodeId {
	return self.id
}

func (self *Node) SetText(value string) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if !self.leaf {
		return fmt.Errorf("node <%s> is not a text node", self.tag)
	}
	self.text = value
	return nil
}

func (self *Node) container() error {
	if self.leaf {
		return errors.New("text node is not a container")
	}
	return nil
}

func (self *Node) PatchAttribute(p patch.HashPatch[string, string]) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if err := self.container(); err != nil {
		return err
	}
	patch.ApplyHashPairs(&self.attribs, p)
	return nil
}

func (self *Node) PatchBooleanAttribute(p patch.HashPatch[string, bool]) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if err := self.container(); err != nil {
		return err
	}
	patch.ApplyHashPairs(&self.boolAttribs, p)
	return nil
}

func (self *Node) PatchStyle(p patch.HashPatch[string, string]) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if err := self.container(); err != nil {
		return err
	}
	patch.ApplyHashPairs(&self.styles, p)
	return nil
}

func (self *Node) BindEvent(target view.EventTarget, name string, sink view.EventSink) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if err := self.container(); err != nil {
		return err
	}
	binding := view.EventBinding{
		Name:   name,
		Target: target,
		Sink:   sink,
	}
	if target == view.TargetThis {
		self.bindings = append(self.bindings, binding)
	} else {
		self.tree.bind(binding)
	}
	return nil
}

// Fire delivers an event. Node scoped events reach sinks bound on this
// node; window and document scoped events reach sinks bound anywhere in
// the tree. Returns the number of sinks reached.
func (self *Node) Fire(target view.EventTarget, name string, event any) int {
	if target != view.TargetThis {
		return self.tree.Fire(target, name, event)
	}

	self.stateLock.Lock()
	bindings := append([]view.EventBinding{}, self.bindings...)
	self.stateLock.Unlock()

	count := 0
	for _, binding := range bindings {
		if binding.Target == view.TargetThis && binding.Name == name {
			binding.Sink.Send(event)
			count += 1
		}
	}
	return count
}

func (self *Node) ChildCount() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.children)
}

func adoptChild(child view.View) (*Node, error) {
	node, ok := child.(*Node)
	if !ok {
		return nil, fmt.Errorf("foreign child node %T", child)
	}
	return node, nil
}

func (self *Node) InsertChild(i int, child view.View) error {
	node, err := adoptChild(child)
	if err != nil {
		return err
	}

	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if err := self.container(); err != nil {
		return err
	}
	if i < 0 || len(self.children) < i {
		return fmt.Errorf("insert index %d out of bounds for %d children", i, len(self.children))
	}
	self.children = append(self.children, nil)
	copy(self.children[i+1:], self.children[i:])
	self.children[i] = node
	return nil
}

func (self *Node) RemoveChild(i int) (view.View, error) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if err := self.container(); err != nil {
		return nil, err
	}
	if i < 0 || len(self.children) <= i {
		return nil, fmt.Errorf("remove index %d out of bounds for %d children", i, len(self.children))
	}
	removed := self.children[i]
	self.children = append(self.children[:i], self.children[i+1:]...)
	return removed, nil
}

func (self *Node) ReplaceChild(i int, child view.View) (view.View, error) {
	node, err := adoptChild(child)
	if err != nil {
		return nil, err
	}

	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if err := self.container(); err != nil {
		return nil, err
	}
	if i < 0 || len(self.children) <= i {
		return nil, fmt.Errorf("replace index %d out of bounds for %d children", i, len(self.children))
	}
	previous := self.children[i]
	self.children[i] = node
	return previous, nil
}

// elements that neither close nor contain children
var voidElements = map[string]bool{
	"area":    true,
	"base":    true,
	"br":      true,
	"col":     true,
	"command": true,
	"hr":      true,
	"img":     true,
	"input":   true,
	"keygen":  true,
	"link":    true,
	"meta":    true,
	"param":   true,
	"source":  true,
	"track":   true,
	"wbr":     true,
}

// HTML serializes the current state of the subtree rooted at this node.
func (self *Node) HTML() string {
	out := &strings.Builder{}
	self.writeHTML(out)
	return out.String()
}

func (self *Node) writeHTML(out *strings.Builder) {
	self.stateLock.Lock()
	if self.leaf {
		text := self.text
		self.stateLock.Unlock()
		out.WriteString(html.EscapeString(text))
		return
	}

	tag := self.tag
	namespace := self.namespace
	attribs := append([]patch.Pair[string, string]{}, self.attribs...)
	boolAttribs := append([]patch.Pair[string, bool]{}, self.boolAttribs...)
	styles := append([]patch.Pair[string, string]{}, self.styles...)
	children := append([]*Node{}, self.children...)
	self.stateLock.Unlock()

	out.WriteByte('<')
	out.WriteString(tag)
	if namespace != "" {
		writeAttrib(out, "xmlns", namespace)
	}
	if 0 < len(styles) {
		declarations := make([]string, len(styles))
		for i, style := range styles {
			declarations[i] = fmt.Sprintf("%s: %s;", style.Key, style.Value)
		}
		writeAttrib(out, "style", strings.Join(declarations, " "))
	}
	for _, attrib := range attribs {
		writeAttrib(out, attrib.Key, attrib.Value)
	}
	for _, attrib := range boolAttribs {
		if attrib.Value {
			out.WriteByte(' ')
			out.WriteString(attrib.Key)
		}
	}
	out.WriteByte('>')

	if voidElements[tag] {
		return
	}
	for _, child := range children {
		child.writeHTML(out)
	}
	out.WriteString("</")
	out.WriteString(tag)
	out.WriteByte('>')
}

func writeAttrib(out *strings.Builder, k string, v string) {
	out.WriteByte(' ')
	out.WriteString(k)
	out.WriteString(`="`)
	out.WriteString(html.EscapeString(v))
	out.WriteByte('"')
}
