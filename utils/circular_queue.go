package utils

import (
	"errors"
	"iter"

	"github.com/scavenger-game/scavenger/oerror"
)

// CircularQueue is a fixed capacity FIFO queue. Appending to a full queue drops the oldest item.
type CircularQueue[T any] struct {
	items []T
	head  int
	tail  int
	size  int
}

func NewCircularQueue[T any](capacity int, propagate func() T) *CircularQueue[T] {
	queue := &CircularQueue[T]{
		items: make([]T, capacity),
	}
	if propagate != nil {
		for index := range queue.items {
			queue.items[index] = propagate()
		}
		queue.size = capacity
	}
	return queue
}

// Get returns the element at logical position index (0 = oldest), or an error if out of range.
func (q *CircularQueue[T]) Get(index int) (T, error) {
	var zero T
	if index < 0 || index >= q.size {
		return zero, errors.New("circularqueue: get out of range")
	}
	return q.items[(q.head+index)%len(q.items)], nil
}

// Set sets the element at logical position index (0 = oldest), or returns an error if out of range.
func (q *CircularQueue[T]) Set(index int, item T) error {
	if index < 0 || index >= q.size {
		return errors.New("circularqueue: set out of range")
	}
	q.items[(q.head+index)%len(q.items)] = item
	return nil
}

func (q *CircularQueue[T]) Iter() iter.Seq[T] {
	return func(yield func(T) bool) {
		for index := range q.size {
			if !yield(q.items[(q.head+index)%len(q.items)]) {
				return
			}
		}
	}
}

// Len returns the number of items currently held.
func (q *CircularQueue[T]) Len() int {
	return q.size
}

// Cap returns the maximum number of items the queue can hold.
func (q *CircularQueue[T]) Cap() int {
	return len(q.items)
}

// Full returns true if the next Append would drop the oldest item.
func (q *CircularQueue[T]) Full() bool {
	return q.size == len(q.items)
}

// Peek returns the oldest element without removing it.
func (q *CircularQueue[T]) Peek() (item T, ok bool) {
	if q.size == 0 {
		return item, false
	}
	return q.items[q.head], true
}

// Pop removes and returns the oldest element. The boolean ok is false if the
// queue is empty.
func (q *CircularQueue[T]) Pop() (item T, ok bool) {
	if q.size == 0 {
		return item, false
	}
	item = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return item, true
}

// Append appends an item or returns an error if the queue has zero capacity.
func (q *CircularQueue[T]) Append(item T) error {
	if len(q.items) == 0 {
		return oerror.New("circularqueue: append on zero-capacity queue")
	}

	q.items[q.tail] = item
	if q.size == len(q.items) {
		// Full, the slot at head was just overwritten.
		q.head = (q.head + 1) % len(q.items)
	} else {
		q.size++
	}
	q.tail = (q.tail + 1) % len(q.items)
	return nil
}
