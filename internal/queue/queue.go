// Package queue implements the FIFO worklist used by the fixed-point passes.
package queue

const minCap = 4

type Queue[T any] struct {
	items      []T
	head, tail int
	count      int
	zero       T
}

func New[T any](items ...T) *Queue[T] {
	c := minCap
	for c < len(items)+1 {
		c <<= 1
	}
	q := &Queue[T]{items: make([]T, c)}
	for _, item := range items {
		q.Append(item)
	}
	return q
}

func (q *Queue[T]) IsEmpty() bool {
	return q.count == 0
}

func (q *Queue[T]) Len() int {
	return q.count
}

func (q *Queue[T]) Append(item T) *Queue[T] {
	if q.count == len(q.items) {
		q.grow()
	}
	q.items[q.tail] = item
	q.tail = (q.tail + 1) & (len(q.items) - 1)
	q.count++
	return q
}

// First removes and returns the head item, reporting whether one was present.
func (q *Queue[T]) First() (T, bool) {
	if q.count == 0 {
		return q.zero, false
	}

	item := q.items[q.head]
	q.items[q.head] = q.zero
	q.head = (q.head + 1) & (len(q.items) - 1)
	q.count--
	return item, true
}

// Items returns the queued items in order without consuming them.
func (q *Queue[T]) Items() []T {
	result := make([]T, q.count)
	for i := 0; i < q.count; i++ {
		result[i] = q.items[(q.head+i)&(len(q.items)-1)]
	}
	return result
}

func (q *Queue[T]) grow() {
	items := make([]T, len(q.items)<<1)
	n := copy(items, q.items[q.head:])
	copy(items[n:], q.items[:q.head])
	q.items = items
	q.head = 0
	q.tail = q.count
}
