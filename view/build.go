package view

import (
	"context"

	"github.com/golang/glog"

	"github.com/weftlabs/weft/patch"
)

// Build materializes the builder into a live node using the given
// resources. Shorthand for Decompose followed by the decomposed build.
func (self *ViewBuilder) Build(ctx context.Context, res Resources) (View, error) {
	return self.Decompose(ctx).Build(ctx, res)
}

// Build materializes a live node. Initial values are applied in a fixed
// order (texts, attributes, boolean attributes, styles, children, events,
// post-build funcs), then one goroutine per facet applies continuation
// values as they arrive, and finally the tasks are spawned. Errors during
// initialization abort the build; errors in a continuation are logged and
// the continuation keeps running. All goroutines end when their stream
// closes or ctx is canceled.
func (self *DecomposedViewBuilder) Build(ctx context.Context, res Resources) (View, error) {
	var v View
	var err error
	switch self.Identity.Kind {
	case IdentityText:
		v, err = res.NewText(self.Identity.Text)
	case IdentityElementNS:
		v, err = res.NewElement(self.Identity.Tag, self.Identity.Namespace)
	default:
		v, err = res.NewElement(self.Identity.Tag, "")
	}
	if err != nil {
		return nil, err
	}

	for _, value := range self.Texts {
		if err := v.SetText(value); err != nil {
			return nil, err
		}
	}
	for _, p := range self.Attribs {
		if err := v.PatchAttribute(p); err != nil {
			return nil, err
		}
	}
	for _, p := range self.BoolAttribs {
		if err := v.PatchBooleanAttribute(p); err != nil {
			return nil, err
		}
	}
	for _, p := range self.Styles {
		if err := v.PatchStyle(p); err != nil {
			return nil, err
		}
	}
	for _, p := range self.Children {
		if _, err := ApplyChildListPatch(ctx, res, v, p); err != nil {
			return nil, err
		}
	}
	for _, binding := range self.Events {
		if err := v.BindEvent(binding.Target, binding.Name, binding.Sink); err != nil {
			return nil, err
		}
	}
	for _, op := range self.Ops {
		if err := op(v); err != nil {
			return nil, err
		}
	}

	go forward(ctx, self.TextStream, func(value string) error {
		return v.SetText(value)
	})
	go forward(ctx, self.AttribStream, func(p patch.HashPatch[string, string]) error {
		return v.PatchAttribute(p)
	})
	go forward(ctx, self.BoolAttribStream, func(p patch.HashPatch[string, bool]) error {
		return v.PatchBooleanAttribute(p)
	})
	go forward(ctx, self.StyleStream, func(p patch.HashPatch[string, string]) error {
		return v.PatchStyle(p)
	})
	go forward(ctx, self.ChildStream, func(p patch.ListPatch[*ViewBuilder]) error {
		_, err := ApplyChildListPatch(ctx, res, v, p)
		return err
	})

	for _, task := range self.Tasks {
		go task(ctx)
	}

	return v, nil
}

// forward applies each streamed value to the live node until the stream
// closes or ctx is canceled.
func forward[T any](ctx context.Context, ch <-chan T, apply func(T) error) {
	if ch == nil {
		return
	}
	for {
		select {
		case value, ok := <-ch:
			if !ok {
				return
			}
			if err := apply(value); err != nil {
				glog.Warningf("[view]update dropped: %s\n", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// ApplyChildListPatch applies one builder-valued list patch to the child
// list of a live parent, materializing patched-in builders at the moment
// they enter the tree. Within the replaced range, existing children are
// replaced pairwise while both sides last; leftover old children are
// removed, leftover new children are inserted after the range. Returns the
// removed children.
func ApplyChildListPatch(ctx context.Context, res Resources, parent View, p patch.ListPatch[*ViewBuilder]) ([]View, error) {
	switch p.Kind {
	case patch.ListPatchPush:
		for _, builder := range p.Items {
			child, err := builder.Build(ctx, res)
			if err != nil {
				return nil, err
			}
			if err := parent.InsertChild(parent.ChildCount(), child); err != nil {
				return nil, err
			}
		}
		return nil, nil
	case patch.ListPatchPop:
		n := parent.ChildCount()
		if n == 0 {
			return nil, nil
		}
		removed, err := parent.RemoveChild(n - 1)
		if err != nil {
			return nil, err
		}
		return []View{removed}, nil
	default:
		start, end := p.Bounds(parent.ChildCount())
		replacements := make([]View, len(p.Items))
		for i, builder := range p.Items {
			child, err := builder.Build(ctx, res)
			if err != nil {
				return nil, err
			}
			replacements[i] = child
		}

		removed := []View{}
		i := start
		j := 0
		for i < end && j < len(replacements) {
			previous, err := parent.ReplaceChild(i, replacements[j])
			if err != nil {
				return nil, err
			}
			removed = append(removed, previous)
			i += 1
			j += 1
		}
		// removing at i shifts the remainder of the range into i
		for k := i; k < end; k += 1 {
			previous, err := parent.RemoveChild(i)
			if err != nil {
				return nil, err
			}
			removed = append(removed, previous)
		}
		for ; j < len(replacements); j += 1 {
			if err := parent.InsertChild(start+j, replacements[j]); err != nil {
				return nil, err
			}
		}
		return removed, nil
	}
}
