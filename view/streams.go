package view

import (
	"context"
	"strings"
	"sync"

	"github.com/weftlabs/weft/patch"
)

// Exhaust drains every value already buffered in the channel without
// blocking. A nil or empty channel yields nothing; a closed channel yields
// its remaining buffer.
func Exhaust[T any](ch <-chan T) []T {
	items := []T{}
	if ch == nil {
		return items
	}
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return items
			}
			items = append(items, v)
		default:
			return items
		}
	}
}

// mergeChans fans the sources into one channel that closes after every
// source closes or ctx is canceled. With no sources the result is already
// closed.
func mergeChans[T any](ctx context.Context, sources []<-chan T) <-chan T {
	active := []<-chan T{}
	for _, source := range sources {
		if source != nil {
			active = append(active, source)
		}
	}
	out := make(chan T)
	if len(active) == 0 {
		close(out)
		return out
	}
	var pending sync.WaitGroup
	for _, source := range active {
		pending.Add(1)
		go func(source <-chan T) {
			defer pending.Done()
			for {
				select {
				case v, ok := <-source:
					if !ok {
						return
					}
					select {
					case out <- v:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(source)
	}
	go func() {
		pending.Wait()
		close(out)
	}()
	return out
}

// streamSource is one registered input for a builder category. Invoking it
// splits the input into the values available synchronously right now and a
// live remainder. Sources are invoked exactly once, at decompose time. Any
// goroutine a source spawns ends when its input closes or ctx is canceled.
type streamSource[T any] func(ctx context.Context) ([]T, <-chan T)

// staticSource yields fixed values and no remainder.
func staticSource[T any](values ...T) streamSource[T] {
	return func(ctx context.Context) ([]T, <-chan T) {
		return values, nil
	}
}

// chanSource drains the channel's current buffer as initial values and
// keeps the channel itself as the remainder.
func chanSource[T any](ch <-chan T) streamSource[T] {
	return func(ctx context.Context) ([]T, <-chan T) {
		return Exhaust(ch), ch
	}
}

// mapSource is chanSource through a value conversion. The conversion may
// expand one input into zero or more outputs. Buffered inputs are converted
// synchronously; later inputs are converted by a forwarding goroutine.
func mapSource[S any, T any](ch <-chan S, f func(S) []T) streamSource[T] {
	return func(ctx context.Context) ([]T, <-chan T) {
		initial := []T{}
		for _, s := range Exhaust(ch) {
			initial = append(initial, f(s)...)
		}
		out := make(chan T)
		go func() {
			defer close(out)
			for {
				select {
				case s, ok := <-ch:
					if !ok {
						return
					}
					for _, t := range f(s) {
						select {
						case out <- t:
						case <-ctx.Done():
							return
						}
					}
				case <-ctx.Done():
					return
				}
			}
		}()
		return initial, out
	}
}

func resolveSources[T any](ctx context.Context, sources []streamSource[T]) ([]T, <-chan T) {
	initial := []T{}
	rests := []<-chan T{}
	for _, source := range sources {
		values, rest := source(ctx)
		initial = append(initial, values...)
		rests = append(rests, rest)
	}
	return initial, mergeChans(ctx, rests)
}

// parseStyleText expands a "key: value; key: value" declaration block into
// insert patches, in declaration order.
func parseStyleText(text string) []patch.HashPatch[string, string] {
	patches := []patch.HashPatch[string, string]{}
	for _, declaration := range strings.Split(text, ";") {
		k, v, ok := strings.Cut(declaration, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" {
			continue
		}
		patches = append(patches, patch.Insert(k, v))
	}
	return patches
}
