// Package patch defines atomic updates to ordered sequences and key-value
// maps, decoupled from any concrete container. The same patch value can be
// applied to a plain slice, an association list, or a live tree's child
// list, and applying it to isomorphic containers yields isomorphic results.
package patch

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type ListPatchKind int

const (
	ListPatchSplice ListPatchKind = iota
	ListPatchPush
	ListPatchPop
)

// ListPatch describes one atomic change to an ordered sequence.
//
// A splice replaces the half-open index range [Start, End) with Items.
// End < 0 means "to the end of the sequence". Push and Pop are semantically
// splices at the tail and exist as low-overhead special cases; a Push
// carries its payload as Items[0].
type ListPatch[T any] struct {
	Kind  ListPatchKind
	Start int
	End   int
	Items []T
}

func Splice[T any](start int, end int, items ...T) ListPatch[T] {
	return ListPatch[T]{
		Kind:  ListPatchSplice,
		Start: start,
		End:   end,
		Items: items,
	}
}

// RemoveAt removes the item at index i.
func RemoveAt[T any](i int) ListPatch[T] {
	return Splice[T](i, i+1)
}

// ReplaceAt replaces the item at index i.
func ReplaceAt[T any](i int, item T) ListPatch[T] {
	return Splice(i, i+1, item)
}

func Push[T any](item T) ListPatch[T] {
	return ListPatch[T]{
		Kind:  ListPatchPush,
		Items: []T{item},
	}
}

func Pop[T any]() ListPatch[T] {
	return ListPatch[T]{
		Kind: ListPatchPop,
	}
}

// Drain removes the entire sequence.
func Drain[T any]() ListPatch[T] {
	return Splice[T](0, -1)
}

// Bounds resolves the splice range against a sequence of length n.
// An out of bounds range is an invariant violation, not a recoverable
// condition.
func (self ListPatch[T]) Bounds(n int) (int, int) {
	start := self.Start
	end := self.End
	if end < 0 {
		end = n
	}
	if start < 0 || end < start || n < end {
		panic(fmt.Errorf("splice range [%d, %d) out of bounds for length %d", start, end, n))
	}
	return start, end
}

// MapList converts the payload type while preserving the patch shape:
// same kind, same range, same cardinality of replacement.
func MapList[T any, X any](p ListPatch[T], f func(T) X) ListPatch[X] {
	items := make([]X, len(p.Items))
	for i, item := range p.Items {
		items[i] = f(item)
	}
	return ListPatch[X]{
		Kind:  p.Kind,
		Start: p.Start,
		End:   p.End,
		Items: items,
	}
}

// TryMapList is MapList for conversions that can fail. The first failure
// aborts the conversion.
func TryMapList[T any, X any](p ListPatch[T], f func(T) (X, error)) (ListPatch[X], error) {
	items := make([]X, len(p.Items))
	for i, item := range p.Items {
		x, err := f(item)
		if err != nil {
			return ListPatch[X]{}, err
		}
		items[i] = x
	}
	return ListPatch[X]{
		Kind:  p.Kind,
		Start: p.Start,
		End:   p.End,
		Items: items,
	}, nil
}

// ApplyList applies the patch to a slice in place and returns the removed
// items in their original order.
func ApplyList[T any](xs *[]T, p ListPatch[T]) []T {
	switch p.Kind {
	case ListPatchPush:
		*xs = append(*xs, p.Items...)
		return nil
	case ListPatchPop:
		n := len(*xs)
		if n == 0 {
			return nil
		}
		removed := []T{(*xs)[n-1]}
		*xs = (*xs)[:n-1]
		return removed
	default:
		start, end := p.Bounds(len(*xs))
		removed := slices.Clone((*xs)[start:end])
		next := make([]T, 0, len(*xs)-len(removed)+len(p.Items))
		next = append(next, (*xs)[:start]...)
		next = append(next, p.Items...)
		next = append(next, (*xs)[end:]...)
		*xs = next
		return removed
	}
}

type HashPatchKind int

const (
	HashPatchInsert HashPatchKind = iota
	HashPatchRemove
)

// HashPatch describes one atomic change to a key-value container.
type HashPatch[K comparable, V any] struct {
	Kind  HashPatchKind
	Key   K
	Value V
}

func Insert[K comparable, V any](k K, v V) HashPatch[K, V] {
	return HashPatch[K, V]{
		Kind:  HashPatchInsert,
		Key:   k,
		Value: v,
	}
}

func Remove[K comparable, V any](k K) HashPatch[K, V] {
	return HashPatch[K, V]{
		Kind: HashPatchRemove,
		Key:  k,
	}
}

// ApplyHash applies the patch to a map. Insert overwrites-or-inserts and
// returns the previous value, if any. Remove deletes-if-present and returns
// the removed value, if any.
func ApplyHash[K comparable, V any](m map[K]V, p HashPatch[K, V]) (V, bool) {
	previous, ok := m[p.Key]
	switch p.Kind {
	case HashPatchInsert:
		m[p.Key] = p.Value
	case HashPatchRemove:
		delete(m, p.Key)
	}
	return previous, ok
}

// Pair is one entry of an ordered association list.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// ApplyHashPairs applies the patch to an ordered association list,
// preserving insertion order on overwrite.
func ApplyHashPairs[K comparable, V any](pairs *[]Pair[K, V], p HashPatch[K, V]) (V, bool) {
	i := slices.IndexFunc(*pairs, func(pair Pair[K, V]) bool {
		return pair.Key == p.Key
	})
	switch p.Kind {
	case HashPatchInsert:
		if 0 <= i {
			previous := (*pairs)[i].Value
			(*pairs)[i].Value = p.Value
			return previous, true
		}
		*pairs = append(*pairs, Pair[K, V]{Key: p.Key, Value: p.Value})
	case HashPatchRemove:
		if 0 <= i {
			previous := (*pairs)[i].Value
			*pairs = slices.Delete(*pairs, i, i+1)
			return previous, true
		}
	}
	var zero V
	return zero, false
}
