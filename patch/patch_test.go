package patch

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestListPatchSplice(t *testing.T) {
	vs := []int{0, 1, 2, 3, 4, 5}

	// insert at an empty range
	removed := ApplyList(&vs, Splice(2, 2, 666))
	assert.Equal(t, len(removed), 0)
	assert.Equal(t, vs, []int{0, 1, 666, 2, 3, 4, 5})

	// replace one for one
	removed = ApplyList(&vs, ReplaceAt(2, 0xC0FFEE))
	assert.Equal(t, removed, []int{666})
	assert.Equal(t, vs, []int{0, 1, 0xC0FFEE, 2, 3, 4, 5})

	removed = ApplyList(&vs, RemoveAt[int](2))
	assert.Equal(t, removed, []int{0xC0FFEE})
	assert.Equal(t, vs, []int{0, 1, 2, 3, 4, 5})

	// replacement list longer than the removed range
	removed = ApplyList(&vs, Splice(1, 3, 10, 11, 12, 13))
	assert.Equal(t, removed, []int{1, 2})
	assert.Equal(t, vs, []int{0, 10, 11, 12, 13, 3, 4, 5})

	// replacement list shorter than the removed range
	removed = ApplyList(&vs, Splice(1, 5, 1, 2))
	assert.Equal(t, removed, []int{10, 11, 12, 13})
	assert.Equal(t, vs, []int{0, 1, 2, 3, 4, 5})

	removed = ApplyList(&vs, Drain[int]())
	assert.Equal(t, removed, []int{0, 1, 2, 3, 4, 5})
	assert.Equal(t, len(vs), 0)
}

func TestListPatchPushPop(t *testing.T) {
	vs := []string{}

	ApplyList(&vs, Push("a"))
	ApplyList(&vs, Push("b"))
	assert.Equal(t, vs, []string{"a", "b"})

	removed := ApplyList(&vs, Pop[string]())
	assert.Equal(t, removed, []string{"b"})
	assert.Equal(t, vs, []string{"a"})

	// push then pop round-trips
	ApplyList(&vs, Push("c"))
	removed = ApplyList(&vs, Pop[string]())
	assert.Equal(t, removed, []string{"c"})
	assert.Equal(t, vs, []string{"a"})

	// pop on empty removes nothing
	ApplyList(&vs, Pop[string]())
	removed = ApplyList(&vs, Pop[string]())
	assert.Equal(t, len(removed), 0)
	assert.Equal(t, len(vs), 0)
}

func TestListPatchMap(t *testing.T) {
	p := Splice(1, 3, 7, 8, 9)
	q := MapList(p, func(v int) string {
		return string(rune('a' + v))
	})
	assert.Equal(t, q.Kind, ListPatchSplice)
	assert.Equal(t, q.Start, 1)
	assert.Equal(t, q.End, 3)
	assert.Equal(t, q.Items, []string{"h", "i", "j"})

	q2 := MapList(Push(1), func(v int) int {
		return v + 1
	})
	assert.Equal(t, q2.Kind, ListPatchPush)
	assert.Equal(t, q2.Items, []int{2})
}

func TestHashPatchMap(t *testing.T) {
	m := map[string]int{}

	_, ok := ApplyHash(m, Insert("a", 1))
	assert.Equal(t, ok, false)
	assert.Equal(t, m["a"], 1)

	previous, ok := ApplyHash(m, Insert("a", 2))
	assert.Equal(t, ok, true)
	assert.Equal(t, previous, 1)
	assert.Equal(t, m["a"], 2)

	previous, ok = ApplyHash(m, Remove[string, int]("a"))
	assert.Equal(t, ok, true)
	assert.Equal(t, previous, 2)
	assert.Equal(t, len(m), 0)

	// remove of a missing key is a no-op
	_, ok = ApplyHash(m, Remove[string, int]("missing"))
	assert.Equal(t, ok, false)
}

func TestHashPatchPairs(t *testing.T) {
	pairs := []Pair[string, string]{}

	ApplyHashPairs(&pairs, Insert("class", "big"))
	ApplyHashPairs(&pairs, Insert("id", "app"))
	assert.Equal(t, len(pairs), 2)

	// overwrite keeps insertion order
	previous, ok := ApplyHashPairs(&pairs, Insert("class", "small"))
	assert.Equal(t, ok, true)
	assert.Equal(t, previous, "big")
	assert.Equal(t, pairs[0].Key, "class")
	assert.Equal(t, pairs[0].Value, "small")
	assert.Equal(t, pairs[1].Key, "id")

	previous, ok = ApplyHashPairs(&pairs, Remove[string, string]("class"))
	assert.Equal(t, ok, true)
	assert.Equal(t, previous, "small")
	assert.Equal(t, len(pairs), 1)
	assert.Equal(t, pairs[0].Key, "id")
}
