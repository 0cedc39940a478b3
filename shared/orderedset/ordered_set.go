package orderedset

import "container/list"

type entry[K comparable, V any] struct {
	key   K
	value V
}

// OrderedSet keeps values keyed by K in insertion order without duplicates.
//
// It is not safe for concurrent use; owners guard it with their own lock.
type OrderedSet[K comparable, V any] struct {
	order *list.List
	index map[K]*list.Element
}

func New[K comparable, V any]() *OrderedSet[K, V] {
	return &OrderedSet[K, V]{
		order: list.New(),
		index: make(map[K]*list.Element),
	}
}

// Add appends v under k unless k is already present.
// It returns the stored value and whether this call inserted it.
func (s *OrderedSet[K, V]) Add(k K, v V) (V, bool) {
	if el, ok := s.index[k]; ok {
		return el.Value.(entry[K, V]).value, false
	}
	s.index[k] = s.order.PushBack(entry[K, V]{key: k, value: v})
	return v, true
}

func (s *OrderedSet[K, V]) Get(k K) (V, bool) {
	el, ok := s.index[k]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(entry[K, V]).value, true
}

// DeleteFunc removes k only when match accepts the stored value.
func (s *OrderedSet[K, V]) DeleteFunc(k K, match func(V) bool) bool {
	el, ok := s.index[k]
	if !ok || !match(el.Value.(entry[K, V]).value) {
		return false
	}
	s.order.Remove(el)
	delete(s.index, k)
	return true
}

func (s *OrderedSet[K, V]) Delete(k K) bool {
	return s.DeleteFunc(k, func(V) bool { return true })
}

func (s *OrderedSet[K, V]) Len() int {
	return len(s.index)
}

// Snapshot copies the values in insertion order. Later mutations of the set
// never show up in a snapshot already taken.
func (s *OrderedSet[K, V]) Snapshot() []V {
	out := make([]V, 0, len(s.index))
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(entry[K, V]).value)
	}
	return out
}
