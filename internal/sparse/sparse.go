// Package sparse implements SparseList, a sparse integer-keyed
// mapping used for sector-position indexes spanning billions of
// positions, and the Baeza-Yates-Perleberg approximate matcher built
// on top of it for NTFS partition geometry inference.
package sparse

import "sort"

// SparseList maps non-negative integer positions to values of type
// V, defaulting to a caller-chosen value for unset positions. Only positions
// holding a non-default value occupy memory; Keys() always returns
// them in ascending order.
type SparseList[V comparable] struct {
	keys     []int
	elements map[int]V
	def      V
}

// New returns an empty SparseList whose unset positions read as def.
func New[V comparable](def V) *SparseList[V] {
	return &SparseList[V]{elements: make(map[int]V), def: def}
}

// FromMap builds a SparseList from a dense map, discarding entries
// equal to def (they would be indistinguishable from unset anyway).
func FromMap[V comparable](m map[int]V, def V) *SparseList[V] {
	s := New[V](def)
	keys := make([]int, 0, len(m))
	for k, v := range m {
		if v == def {
			continue
		}
		keys = append(keys, k)
		s.elements[k] = v
	}
	sort.Ints(keys)
	s.keys = keys
	return s
}

// Len returns last_key+1, or 0 if the list is empty.
func (s *SparseList[V]) Len() int {
	if len(s.keys) == 0 {
		return 0
	}
	return s.keys[len(s.keys)-1] + 1
}

// Get returns the value at index, or def if unset.
func (s *SparseList[V]) Get(index int) V {
	if v, ok := s.elements[index]; ok {
		return v
	}
	return s.def
}

// Set assigns v at index. Setting a position to def removes it from
// both the key list and the value map.
func (s *SparseList[V]) Set(index int, v V) {
	if v == s.def {
		s.removeKey(index)
		delete(s.elements, index)
		return
	}
	if _, exists := s.elements[index]; !exists {
		s.insertKey(index)
	}
	s.elements[index] = v
}

func (s *SparseList[V]) insertKey(index int) {
	i := sort.SearchInts(s.keys, index)
	s.keys = append(s.keys, 0)
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = index
}

func (s *SparseList[V]) removeKey(index int) {
	i := sort.SearchInts(s.keys, index)
	if i < len(s.keys) && s.keys[i] == index {
		s.keys = append(s.keys[:i], s.keys[i+1:]...)
	}
}

// Contains reports whether v occurs anywhere among the list's current
// values, iterating the underlying map rather than the sorted key
// list (the two always agree: both Set and WipeInterval keep them in
// sync).
func (s *SparseList[V]) Contains(v V) bool {
	for _, e := range s.elements {
		if e == v {
			return true
		}
	}
	return false
}

// Keys returns the populated positions in ascending order.
func (s *SparseList[V]) Keys() []int {
	out := make([]int, len(s.keys))
	copy(out, s.keys)
	return out
}

// KeysReverse returns the populated positions in descending order.
func (s *SparseList[V]) KeysReverse() []int {
	out := make([]int, len(s.keys))
	for i, k := range s.keys {
		out[len(out)-1-i] = k
	}
	return out
}

// Values returns the values at each populated position, in ascending
// key order.
func (s *SparseList[V]) Values() []V {
	out := make([]V, len(s.keys))
	for i, k := range s.keys {
		out[i] = s.elements[k]
	}
	return out
}

// WipeInterval deletes keys from the half-open interval [bottom, top)
// when bottom <= top, or deletes every key OUTSIDE [top, bottom) when
// bottom > top (the wraparound case, used by the approximate matcher
// to clear a cyclic window of counts). A deleted key's value is
// removed from the underlying map as well, so a later Get at that
// position reads back def rather than the stale value — matching the
// reference implementation, which drops the element outright rather
// than merely unlisting its key.
func (s *SparseList[V]) WipeInterval(bottom, top int) {
	kept := s.keys[:0:0]
	if bottom > top {
		for _, k := range s.keys {
			if k >= top && k < bottom {
				kept = append(kept, k)
			} else {
				delete(s.elements, k)
			}
		}
	} else {
		for _, k := range s.keys {
			if k < bottom || k >= top {
				kept = append(kept, k)
			} else {
				delete(s.elements, k)
			}
		}
	}
	s.keys = kept
}
