package ssr

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/weftlabs/weft/model"
	"github.com/weftlabs/weft/patch"
	"github.com/weftlabs/weft/txrx"
	"github.com/weftlabs/weft/view"
)

func waitFor(t *testing.T, condition func() bool) {
	timeout := time.Now().Add(5 * time.Second)
	for !condition() {
		if timeout.Before(time.Now()) {
			t.FailNow()
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNodeId(t *testing.T) {
	a := NewNodeId()
	b := NewNodeId()
	assert.NotEqual(t, a, b)
	assert.Equal(t, len(a.String()), 26)
}

func TestNodeHTML(t *testing.T) {
	tree := NewTree()

	built, err := tree.NewElement("div", "")
	assert.Equal(t, err, nil)
	node := built.(*Node)

	assert.Equal(t, node.PatchAttribute(patch.Insert("id", "app")), nil)
	assert.Equal(t, node.PatchAttribute(patch.Insert("class", "big")), nil)
	assert.Equal(t, node.PatchStyle(patch.Insert("color", "red")), nil)
	assert.Equal(t, node.PatchBooleanAttribute(patch.Insert("hidden", true)), nil)

	text, err := tree.NewText("hello")
	assert.Equal(t, err, nil)
	assert.Equal(t, node.InsertChild(0, text), nil)

	assert.Equal(t, node.HTML(), `<div style="color: red;" id="app" class="big" hidden>hello</div>`)

	// attribute overwrite keeps position, boolean false drops the attribute
	assert.Equal(t, node.PatchAttribute(patch.Insert("id", "root")), nil)
	assert.Equal(t, node.PatchBooleanAttribute(patch.Insert("hidden", false)), nil)
	assert.Equal(t, node.HTML(), `<div style="color: red;" id="root" class="big">hello</div>`)
}

func TestNodeHTMLEscaping(t *testing.T) {
	tree := NewTree()

	built, _ := tree.NewElement("span", "")
	node := built.(*Node)
	node.PatchAttribute(patch.Insert("title", `say "hi" & <bye>`))

	text, _ := tree.NewText(`a < b & c > d`)
	node.InsertChild(0, text)

	html := node.HTML()
	assert.Equal(t, strings.Contains(html, `a &lt; b &amp; c &gt; d`), true)
	assert.Equal(t, strings.Contains(html, `&#34;hi&#34;`), true)
}

func TestVoidElements(t *testing.T) {
	tree := NewTree()

	built, _ := tree.NewElement("br", "")
	node := built.(*Node)
	assert.Equal(t, node.HTML(), "<br>")

	built, _ = tree.NewElement("input", "")
	node = built.(*Node)
	node.PatchAttribute(patch.Insert("type", "text"))
	assert.Equal(t, node.HTML(), `<input type="text">`)
}

func TestNamespace(t *testing.T) {
	tree := NewTree()

	built, _ := tree.NewElement("svg", "http://www.w3.org/2000/svg")
	node := built.(*Node)
	assert.Equal(t, node.HTML(), `<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
}

func TestTextNodeShape(t *testing.T) {
	tree := NewTree()

	text, _ := tree.NewText("hello")

	assert.Equal(t, text.SetText("goodbye"), nil)
	assert.NotEqual(t, text.PatchAttribute(patch.Insert("id", "x")), nil)
	assert.NotEqual(t, text.InsertChild(0, text), nil)

	element, _ := tree.NewElement("div", "")
	assert.NotEqual(t, element.SetText("nope"), nil)
}

func TestFire(t *testing.T) {
	tree := NewTree()

	built, _ := tree.NewElement("button", "")
	node := built.(*Node)

	clicks, clickRx := txrx.Channel[any]()
	received := []any{}
	clickRx.Respond(func(event any) {
		received = append(received, event)
	})
	assert.Equal(t, node.BindEvent(view.TargetThis, "click", clicks), nil)

	resizes, resizeRx := txrx.Channel[any]()
	resized := false
	resizeRx.Respond(func(any) {
		resized = true
	})
	assert.Equal(t, node.BindEvent(view.TargetWindow, "resize", resizes), nil)

	assert.Equal(t, node.Fire(view.TargetThis, "click", "payload"), 1)
	assert.Equal(t, received, []any{"payload"})

	// unbound names reach nobody
	assert.Equal(t, node.Fire(view.TargetThis, "keydown", nil), 0)

	// window scoped bindings are fired through the tree
	assert.Equal(t, tree.Fire(view.TargetWindow, "resize", nil), 1)
	assert.Equal(t, resized, true)
	assert.Equal(t, node.Fire(view.TargetWindow, "resize", nil), 1)
}

func TestBuildLiveView(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := NewTree()

	texts := make(chan string, 1)
	texts <- "count: 0"

	built, err := view.Element("div").
		WithAttrib("id", "counter").
		WithChild(view.TextStream(texts)).
		Build(ctx, tree)
	assert.Equal(t, err, nil)

	node := built.(*Node)
	assert.Equal(t, node.HTML(), `<div id="counter">count: 0</div>`)

	// later stream values show up in later renders
	texts <- "count: 1"
	waitFor(t, func() bool {
		return node.HTML() == `<div id="counter">count: 1</div>`
	})
}

func TestBuildEventRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := NewTree()

	clicks, clickRx := txrx.Channel[any]()
	labels := txrx.BranchFold(clickRx, 0, func(count *int, _ any) string {
		*count += 1
		return fmt.Sprintf("clicked %d times", *count)
	})

	built, err := view.Element("button").
		WithText("").
		WithEvent("click", view.TargetThis, clicks).
		Build(ctx, tree)
	// a plain element rejects text values
	assert.NotEqual(t, err, nil)

	labelStream := make(chan string, 1)
	labelRx := labels.Branch()
	labelRx.Respond(func(label string) {
		select {
		case labelStream <- label:
		default:
		}
	})

	built, err = view.Element("button").
		WithChild(view.Text("clicked 0 times").WithTextStream(labelStream)).
		WithEvent("click", view.TargetThis, clicks).
		Build(ctx, tree)
	assert.Equal(t, err, nil)

	node := built.(*Node)
	assert.Equal(t, node.HTML(), "<button>clicked 0 times</button>")

	node.Fire(view.TargetThis, "click", nil)
	waitFor(t, func() bool {
		return node.HTML() == "<button>clicked 1 times</button>"
	})
}

func TestListPatchIsomorphism(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := NewTree()

	items := model.NewListPatchModel[string]()
	defer items.Close()

	sub := items.Subscribe(ctx)
	builderPatches := make(chan patch.ListPatch[*view.ViewBuilder])
	go func() {
		defer close(builderPatches)
		for p := range sub {
			builderPatches <- patch.MapList(p, func(s string) *view.ViewBuilder {
				return view.Element("li").WithChild(view.Text(s))
			})
		}
	}()

	built, err := view.Element("ul").
		WithChildStream(builderPatches).
		Build(ctx, tree)
	assert.Equal(t, err, nil)
	node := built.(*Node)

	render := func(vs []string) string {
		out := &strings.Builder{}
		out.WriteString("<ul>")
		for _, v := range vs {
			out.WriteString("<li>")
			out.WriteString(v)
			out.WriteString("</li>")
		}
		out.WriteString("</ul>")
		return out.String()
	}

	// the child list tracks the model through arbitrary patches
	items.Push("a")
	items.Push("b")
	items.Push("c")
	waitFor(t, func() bool {
		return node.HTML() == render(items.Snapshot())
	})

	items.Splice(1, 2, "x", "y")
	waitFor(t, func() bool {
		return node.HTML() == render(items.Snapshot())
	})

	items.Pop()
	items.Drain()
	waitFor(t, func() bool {
		return node.HTML() == "<ul></ul>"
	})
}
