package keyboard

// Capacity is the size of the ring storage. One slot is always kept free to
// tell a full ring from an empty one, so at most Capacity-1 bytes are pending.
const Capacity = 32

// Ring is the bounded queue between the terminal key handler and the
// keyboard MMIO port. When full, new bytes are dropped rather than
// overwriting older ones.
type Ring struct {
	buf  [Capacity]byte
	head int // next read position
	tail int // next write position
}

// New returns an empty ring.
func New() *Ring {
	return &Ring{}
}

// Push appends b and reports whether it was stored.
func (r *Ring) Push(b byte) bool {
	next := (r.tail + 1) % Capacity
	if next == r.head {
		return false
	}
	r.buf[r.tail] = b
	r.tail = next
	return true
}

// Pop removes and returns the oldest byte.
func (r *Ring) Pop() (byte, bool) {
	b, ok := r.Peek()
	if ok {
		r.head = (r.head + 1) % Capacity
	}
	return b, ok
}

// Peek returns the oldest byte without consuming it.
func (r *Ring) Peek() (byte, bool) {
	if r.head == r.tail {
		return 0, false
	}
	return r.buf[r.head], true
}

// Len returns the number of pending bytes.
func (r *Ring) Len() int {
	return (r.tail - r.head + Capacity) % Capacity
}

// Full reports whether the next Push would be dropped.
func (r *Ring) Full() bool {
	return (r.tail+1)%Capacity == r.head
}

// Snapshot copies up to max pending bytes in FIFO order without consuming
// them.
func (r *Ring) Snapshot(max int) []byte {
	n := r.Len()
	if max < n {
		n = max
	}
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = r.buf[(r.head+i)%Capacity]
	}
	return out
}

// Reset discards every pending byte.
func (r *Ring) Reset() {
	r.head, r.tail = 0, 0
}
