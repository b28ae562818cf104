package txrx

import (
	"context"
	"flag"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func init() {
	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "INFO")
	flag.Set("v", "0")
}

func TestChannelSendRespond(t *testing.T) {
	tx, rx := Channel[string]()

	received := []string{}
	rx.Respond(func(s string) {
		received = append(received, s)
	})

	tx.Send("hello")
	tx.Send("world")
	assert.Equal(t, received, []string{"hello", "world"})

	tx.SendMany([]string{"a", "b", "c"})
	assert.Equal(t, received, []string{"hello", "world", "a", "b", "c"})
}

func TestSendWithoutResponder(t *testing.T) {
	tx, rx := Channel[int]()

	// no responder installed yet, sends are discarded
	tx.Send(1)

	received := []int{}
	rx.Respond(func(v int) {
		received = append(received, v)
	})
	tx.Send(2)
	assert.Equal(t, received, []int{2})
}

func TestBranch(t *testing.T) {
	tx, rx := Channel[int]()

	a := []int{}
	b := []int{}
	rx.Respond(func(v int) {
		a = append(a, v)
	})
	rx.Branch().Respond(func(v int) {
		b = append(b, v)
	})

	tx.Send(7)
	assert.Equal(t, a, []int{7})
	assert.Equal(t, b, []int{7})
}

func TestBranchMap(t *testing.T) {
	tx, rx := Channel[struct{}]()

	observed := []int{}
	mapped := BranchMap(rx, func(struct{}) int {
		return 0
	})
	mapped.Respond(func(v int) {
		observed = append(observed, v)
	})

	tx.Send(struct{}{})
	assert.Equal(t, observed, []int{0})
}

func TestBranchFilterMap(t *testing.T) {
	tx, rx := Channel[int]()

	observed := []int{}
	evens := BranchFilterMap(rx, func(v int) (int, bool) {
		return v * 10, v%2 == 0
	})
	evens.Respond(func(v int) {
		observed = append(observed, v)
	})

	for v := 0; v < 5; v += 1 {
		tx.Send(v)
	}
	assert.Equal(t, observed, []int{0, 20, 40})
}

func TestContraFilterFold(t *testing.T) {
	tx, rx := Channel[string]()

	received := []string{}
	rx.Respond(func(s string) {
		received = append(received, s)
	})

	// emit only on every third send
	clicks := ContraFilterFold(tx, 0, func(count *int, _ struct{}) (string, bool) {
		*count += 1
		if *count%3 == 0 {
			return "three", true
		}
		return "", false
	})

	clicks.Send(struct{}{})
	clicks.Send(struct{}{})
	assert.Equal(t, len(received), 0)
	clicks.Send(struct{}{})
	assert.Equal(t, received, []string{"three"})
}

func TestContraMap(t *testing.T) {
	tx, rx := Channel[string]()

	received := []string{}
	rx.Respond(func(s string) {
		received = append(received, s)
	})

	numbers := ContraMap(tx, func(v int) string {
		return string(rune('0' + v))
	})
	numbers.Send(1)
	numbers.Send(2)
	assert.Equal(t, received, []string{"1", "2"})
}

func TestForwardFold(t *testing.T) {
	ta, ra := Channel[int]()
	tb, rb := Channel[int]()

	sums := []int{}
	rb.Respond(func(v int) {
		sums = append(sums, v)
	})

	// running sum
	ForwardFold(ra, tb, 0, func(sum *int, v int) int {
		*sum += v
		return *sum
	})

	ta.Send(1)
	ta.Send(2)
	ta.Send(3)
	assert.Equal(t, sums, []int{1, 3, 6})
}

func TestWireMap(t *testing.T) {
	ta := NewTransmitter[int]()
	rb := NewReceiver[string]()

	received := []string{}
	rb.Respond(func(s string) {
		received = append(received, s)
	})

	WireMap(ta, rb, func(v int) string {
		if v%2 == 0 {
			return "even"
		}
		return "odd"
	})

	ta.Send(2)
	ta.Send(3)
	assert.Equal(t, received, []string{"even", "odd"})
}

func TestMerge(t *testing.T) {
	ta, ra := Channel[string]()
	tb, rb := Channel[string]()

	received := []string{}
	merged := Merge(ra, rb)
	merged.Respond(func(s string) {
		received = append(received, s)
	})

	ta.Send("a1")
	tb.Send("b1")
	ta.Send("a2")
	assert.Equal(t, received, []string{"a1", "b1", "a2"})
}

func TestRespondShared(t *testing.T) {
	tx, rx := Channel[int]()

	state := NewShared(0)
	RespondShared(rx, state, func(sum *int, v int) {
		*sum += v
	})

	tx.Send(5)
	tx.Send(7)
	assert.Equal(t, state.Get(), 12)
}

func TestDropResponder(t *testing.T) {
	tx, rx := Channel[int]()

	received := []int{}
	rx.Respond(func(v int) {
		received = append(received, v)
	})

	tx.Send(1)
	rx.DropResponder()
	tx.Send(2)
	assert.Equal(t, received, []int{1})
}

func TestRecv(t *testing.T) {
	tx, rx := Channel[string]()

	out := rx.Recv()
	tx.Send("first")
	tx.Send("second")

	v, ok := <-out
	assert.Equal(t, ok, true)
	assert.Equal(t, v, "first")

	// resolved once, then closed
	_, ok = <-out
	assert.Equal(t, ok, false)
}

func TestRecvStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tx, rx := Channel[int]()
	out := rx.RecvStream(ctx)

	go func() {
		for v := 0; v < 100; v += 1 {
			tx.Send(v)
		}
		cancel()
	}()

	received := []int{}
	for v := range out {
		received = append(received, v)
	}
	// lossless and ordered up to the cancel point
	for i, v := range received {
		assert.Equal(t, v, i)
	}
}

func TestReentrantSend(t *testing.T) {
	tx, rx := Channel[int]()

	received := []int{}
	rx.Respond(func(v int) {
		received = append(received, v)
		if v < 3 {
			tx.Send(v + 1)
		}
	})

	tx.Send(0)
	assert.Equal(t, received, []int{0, 1, 2, 3})
}

func TestResponderPanicIsolated(t *testing.T) {
	tx, rx := Channel[int]()

	rx.Respond(func(int) {
		panic("bad responder")
	})

	received := []int{}
	rx.Branch().Respond(func(v int) {
		received = append(received, v)
	})

	tx.Send(1)
	tx.Send(2)
	assert.Equal(t, received, []int{1, 2})
}

func TestSendConcurrent(t *testing.T) {
	tx, rx := Channel[int]()

	state := NewShared(0)
	RespondShared(rx, state, func(count *int, _ int) {
		*count += 1
	})

	n := 8
	m := 100
	done := make(chan struct{}, n)
	for g := 0; g < n; g += 1 {
		go func() {
			for i := 0; i < m; i += 1 {
				tx.Send(i)
			}
			done <- struct{}{}
		}()
	}
	for g := 0; g < n; g += 1 {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.FailNow()
		}
	}
	assert.Equal(t, state.Get(), n*m)
}
