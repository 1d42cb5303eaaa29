// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer

import "slices"

// PartitionSet is the authoritative set of partition ids a bus instance
// knows about. It must agree between a bus's Writer side and Reader side
// (distilled spec §4.1/§4.3).
type PartitionSet map[uint32]struct{}

// NewPartitionSet builds a PartitionSet from the given ids.
func NewPartitionSet(ids ...uint32) PartitionSet {
	s := make(PartitionSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is a member of the set.
func (s PartitionSet) Contains(id uint32) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the set's members in ascending order.
func (s PartitionSet) Sorted() []uint32 {
	ids := make([]uint32, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Equal reports whether two partition sets have identical membership.
func (s PartitionSet) Equal(other PartitionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}
