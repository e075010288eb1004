package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmpty(t *testing.T) {
	q := New[int]()
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Len())
	_, got := q.First()
	assert.False(t, got)
}

func TestFifoOrder(t *testing.T) {
	q := New(1, 2, 3)
	q.Append(4)
	for i := 1; i <= 4; i++ {
		item, got := q.First()
		assert.True(t, got)
		assert.Equal(t, i, item)
	}
	assert.True(t, q.IsEmpty())
}

func TestGrowKeepsOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 3; i++ {
		q.Append(i)
	}
	q.First()
	q.First()
	for i := 3; i < 40; i++ {
		q.Append(i)
	}

	assert.Equal(t, 38, q.Len())
	items := q.Items()
	for i, item := range items {
		assert.Equal(t, i+2, item)
	}
}

func TestItemsDoesNotConsume(t *testing.T) {
	q := New("a", "b")
	assert.Equal(t, []string{"a", "b"}, q.Items())
	assert.Equal(t, 2, q.Len())
}
