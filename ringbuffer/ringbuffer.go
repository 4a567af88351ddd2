// Package ringbuffer keeps a bounded window of test outcomes, one
// RingBuffer per test case, and encodes it to a compact text form.
package ringbuffer

// Result is the outcome of one test case in one build.
type Result struct {
	BuildNumber int
	Passed      bool
}

// slot is one physical position of the backing array. An unset slot is
// distinct from a failed result and survives encoding as an empty field.
type slot struct {
	result Result
	set    bool
}

// RingBuffer is a fixed-capacity circular buffer of Results. Once full,
// every insertion evicts the oldest entry.
//
// A RingBuffer does no locking; callers sharing one across goroutines
// must serialize Insert/InsertAll against Snapshot and Serialize.
type RingBuffer struct {
	slots []slot
	head  int // oldest occupied slot
	tail  int // next slot to write
	size  int
}

// New returns an empty buffer with capacity slots. A capacity of zero (or
// less) yields a buffer that never stores anything.
func New(capacity int) *RingBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &RingBuffer{slots: make([]slot, capacity)}
}

// Insert writes r at the tail, evicting the oldest entry if the buffer is full.
func (b *RingBuffer) Insert(r Result) {
	if len(b.slots) == 0 {
		return
	}
	tail := b.wrap(b.tail)
	b.slots[tail] = slot{result: r, set: true}
	b.tail = b.wrap(tail + 1)

	if b.size >= len(b.slots) {
		b.head = b.wrap(b.head + 1)
	} else {
		b.size++
	}
}

// Add records the outcome of buildNumber.
func (b *RingBuffer) Add(buildNumber int, passed bool) {
	b.Insert(Result{BuildNumber: buildNumber, Passed: passed})
}

// InsertAll inserts rs in order.
func (b *RingBuffer) InsertAll(rs []Result) {
	for _, r := range rs {
		b.Insert(r)
	}
}

// Snapshot returns the stored results oldest to newest. The returned slice
// is a copy.
func (b *RingBuffer) Snapshot() []Result {
	if len(b.slots) == 0 || b.size <= 0 {
		return []Result{}
	}
	out := make([]Result, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.slots[b.wrap(b.head+i)].result
	}
	return out
}

// Latest returns the most recently inserted result.
func (b *RingBuffer) Latest() (Result, bool) {
	if len(b.slots) == 0 || b.size <= 0 {
		return Result{}, false
	}
	return b.slots[b.wrap(b.head+b.size-1)].result, true
}

// IsEmptyCapacity reports whether the buffer was created without slots.
// A buffer with slots but no entries yet is not empty in this sense.
func (b *RingBuffer) IsEmptyCapacity() bool {
	return len(b.slots) == 0
}

// wrap maps i onto a physical index. Decoded buffers keep head and tail
// verbatim, so i may be negative or past the end.
func (b *RingBuffer) wrap(i int) int {
	i %= len(b.slots)
	if i < 0 {
		i += len(b.slots)
	}
	return i
}

// Capacity returns the number of slots.
func (b *RingBuffer) Capacity() int {
	return len(b.slots)
}

// Len returns the number of stored results.
func (b *RingBuffer) Len() int {
	return b.size
}
