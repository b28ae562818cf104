package txrx

// Combinators that change a channel's message type. Go methods cannot
// introduce type parameters, so these are package functions over the
// handle types.
//
// The filtering variants use the comma-ok convention: returning
// (_, false) from the fold or map function suppresses the outgoing
// message.

// ContraFilterFoldShared extends tx backwards with a new Transmitter[B]
// using a filtering fold over shared state. Sending B folds it into the
// state and, on ok, forwards the produced A to tx.
//
// "Contra" because the new transmitter extends the original backwards over
// the type parameter.
func ContraFilterFoldShared[B any, T any, A any](tx *Transmitter[A], state *Shared[T], f func(*T, B) (A, bool)) *Transmitter[B] {
	tb, rb := Channel[B]()
	ForwardFilterFoldShared(rb, tx, state, f)
	return tb
}

// ContraFilterFold extends tx backwards with a new Transmitter[B] using a
// filtering fold over internal state.
func ContraFilterFold[B any, T any, A any](tx *Transmitter[A], init T, f func(*T, B) (A, bool)) *Transmitter[B] {
	return ContraFilterFoldShared(tx, NewShared(init), f)
}

// ContraFold extends tx backwards using a fold. Every fold result is
// forwarded.
func ContraFold[B any, T any, A any](tx *Transmitter[A], init T, f func(*T, B) A) *Transmitter[B] {
	return ContraFilterFold(tx, init, func(t *T, b B) (A, bool) {
		return f(t, b), true
	})
}

// ContraFilterMap extends tx backwards using a stateless filtering map.
func ContraFilterMap[B any, A any](tx *Transmitter[A], f func(B) (A, bool)) *Transmitter[B] {
	return ContraFilterFold(tx, struct{}{}, func(_ *struct{}, b B) (A, bool) {
		return f(b)
	})
}

// ContraMap extends tx backwards using a stateless map.
func ContraMap[B any, A any](tx *Transmitter[A], f func(B) A) *Transmitter[B] {
	return ContraFilterMap(tx, func(b B) (A, bool) {
		return f(b), true
	})
}

// ForwardFilterFoldShared consumes rx, wiring it to tx using a filtering
// fold over shared state.
func ForwardFilterFoldShared[A any, T any, B any](rx *Receiver[A], tx *Transmitter[B], state *Shared[T], f func(*T, A) (B, bool)) {
	rx.Respond(func(a A) {
		var b B
		var ok bool
		state.Visit(func(t *T) {
			b, ok = f(t, a)
		})
		if ok {
			tx.Send(b)
		}
	})
}

// ForwardFilterFold consumes rx, wiring it to tx using a filtering fold
// over internal state.
func ForwardFilterFold[A any, T any, B any](rx *Receiver[A], tx *Transmitter[B], init T, f func(*T, A) (B, bool)) {
	ForwardFilterFoldShared(rx, tx, NewShared(init), f)
}

// ForwardFold consumes rx, wiring it to tx using a fold.
func ForwardFold[A any, T any, B any](rx *Receiver[A], tx *Transmitter[B], init T, f func(*T, A) B) {
	ForwardFilterFold(rx, tx, init, func(t *T, a A) (B, bool) {
		return f(t, a), true
	})
}

// ForwardFoldShared consumes rx, wiring it to tx using a fold over shared
// state.
func ForwardFoldShared[A any, T any, B any](rx *Receiver[A], tx *Transmitter[B], state *Shared[T], f func(*T, A) B) {
	ForwardFilterFoldShared(rx, tx, state, func(t *T, a A) (B, bool) {
		return f(t, a), true
	})
}

// ForwardFilterMap consumes rx, wiring it to tx using a stateless
// filtering map.
func ForwardFilterMap[A any, B any](rx *Receiver[A], tx *Transmitter[B], f func(A) (B, bool)) {
	ForwardFilterFold(rx, tx, struct{}{}, func(_ *struct{}, a A) (B, bool) {
		return f(a)
	})
}

// ForwardMap consumes rx, wiring it to tx using a stateless map.
func ForwardMap[A any, B any](rx *Receiver[A], tx *Transmitter[B], f func(A) B) {
	ForwardFilterMap(rx, tx, func(a A) (B, bool) {
		return f(a), true
	})
}

// BranchFilterFoldShared branches a new Receiver[B] off rx, derived
// through a filtering fold over shared state. Both receivers keep
// receiving from the same source.
func BranchFilterFoldShared[A any, T any, B any](rx *Receiver[A], state *Shared[T], f func(*T, A) (B, bool)) *Receiver[B] {
	ra := rx.Branch()
	tb, rb := Channel[B]()
	ForwardFilterFoldShared(ra, tb, state, f)
	return rb
}

// BranchFilterFold branches a new Receiver[B] off rx, derived through a
// filtering fold over internal state.
func BranchFilterFold[A any, T any, B any](rx *Receiver[A], init T, f func(*T, A) (B, bool)) *Receiver[B] {
	return BranchFilterFoldShared(rx, NewShared(init), f)
}

// BranchFold branches a new Receiver[B] off rx, derived through a fold.
func BranchFold[A any, T any, B any](rx *Receiver[A], init T, f func(*T, A) B) *Receiver[B] {
	return BranchFilterFold(rx, init, func(t *T, a A) (B, bool) {
		return f(t, a), true
	})
}

// BranchFoldShared branches a new Receiver[B] off rx, derived through a
// fold over shared state.
func BranchFoldShared[A any, T any, B any](rx *Receiver[A], state *Shared[T], f func(*T, A) B) *Receiver[B] {
	return BranchFilterFoldShared(rx, state, func(t *T, a A) (B, bool) {
		return f(t, a), true
	})
}

// BranchFilterMap branches a new Receiver[B] off rx, derived through a
// stateless filtering map.
func BranchFilterMap[A any, B any](rx *Receiver[A], f func(A) (B, bool)) *Receiver[B] {
	return BranchFilterFold(rx, struct{}{}, func(_ *struct{}, a A) (B, bool) {
		return f(a)
	})
}

// BranchMap branches a new Receiver[B] off rx, derived through a stateless
// map.
func BranchMap[A any, B any](rx *Receiver[A], f func(A) B) *Receiver[B] {
	return BranchFilterMap(rx, func(a A) (B, bool) {
		return f(a), true
	})
}

// WireFilterFoldShared wires tx to send to the given foreign receiver
// using a filtering fold over shared state.
func WireFilterFoldShared[A any, T any, B any](tx *Transmitter[A], rb *Receiver[B], state *Shared[T], f func(*T, A) (B, bool)) {
	ForwardFilterFoldShared(tx.NewReceiver(), rb.NewTransmitter(), state, f)
}

// WireFilterFold wires tx to send to the given foreign receiver using a
// filtering fold over internal state.
func WireFilterFold[A any, T any, B any](tx *Transmitter[A], rb *Receiver[B], init T, f func(*T, A) (B, bool)) {
	WireFilterFoldShared(tx, rb, NewShared(init), f)
}

// WireFold wires tx to send to the given foreign receiver using a fold.
func WireFold[A any, T any, B any](tx *Transmitter[A], rb *Receiver[B], init T, f func(*T, A) B) {
	WireFilterFold(tx, rb, init, func(t *T, a A) (B, bool) {
		return f(t, a), true
	})
}

// WireFilterMap wires tx to send to the given foreign receiver using a
// stateless filtering map.
func WireFilterMap[A any, B any](tx *Transmitter[A], rb *Receiver[B], f func(A) (B, bool)) {
	WireFilterFold(tx, rb, struct{}{}, func(_ *struct{}, a A) (B, bool) {
		return f(a)
	})
}

// WireMap wires tx to send to the given foreign receiver using a stateless
// map.
func WireMap[A any, B any](tx *Transmitter[A], rb *Receiver[B], f func(A) B) {
	WireFilterMap(tx, rb, func(a A) (B, bool) {
		return f(a), true
	})
}

// ChannelFilterFold creates a linked, filtering Transmitter[A] and
// Receiver[B] pair with internal state.
func ChannelFilterFold[A any, T any, B any](init T, f func(*T, A) (B, bool)) (*Transmitter[A], *Receiver[B]) {
	ta, ra := Channel[A]()
	tb, rb := Channel[B]()
	ForwardFilterFold(ra, tb, init, f)
	return ta, rb
}

// ChannelFilterFoldShared creates a linked, filtering Transmitter[A] and
// Receiver[B] pair with shared state.
func ChannelFilterFoldShared[A any, T any, B any](state *Shared[T], f func(*T, A) (B, bool)) (*Transmitter[A], *Receiver[B]) {
	ta, ra := Channel[A]()
	tb, rb := Channel[B]()
	ForwardFilterFoldShared(ra, tb, state, f)
	return ta, rb
}

// ChannelFold creates a linked Transmitter[A] and Receiver[B] pair with
// internal state.
func ChannelFold[A any, T any, B any](init T, f func(*T, A) B) (*Transmitter[A], *Receiver[B]) {
	return ChannelFilterFold(init, func(t *T, a A) (B, bool) {
		return f(t, a), true
	})
}

// ChannelFilterMap creates a linked, filtering Transmitter[A] and
// Receiver[B] pair.
func ChannelFilterMap[A any, B any](f func(A) (B, bool)) (*Transmitter[A], *Receiver[B]) {
	return ChannelFilterFold(struct{}{}, func(_ *struct{}, a A) (B, bool) {
		return f(a)
	})
}

// ChannelMap creates a linked Transmitter[A] and Receiver[B] pair.
func ChannelMap[A any, B any](f func(A) B) (*Transmitter[A], *Receiver[B]) {
	return ChannelFilterMap(func(a A) (B, bool) {
		return f(a), true
	})
}
