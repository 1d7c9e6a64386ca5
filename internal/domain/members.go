package domain

import (
	"slices"

	"golang.org/x/exp/maps"
)

type Members struct {
	set map[string]struct{}
}

func NewMembers() *Members {
	return &Members{set: make(map[string]struct{})}
}

// Add reports whether memberId was not yet present.
func (m *Members) Add(memberId string) bool {
	if _, ok := m.set[memberId]; ok {
		return false
	}
	m.set[memberId] = struct{}{}

	return true
}

func (m *Members) Remove(memberId string) bool {
	if _, ok := m.set[memberId]; !ok {
		return false
	}
	delete(m.set, memberId)

	return true
}

func (m *Members) Length() int {
	return len(m.set)
}

// Ids returns a sorted snapshot of member ids.
func (m *Members) Ids() []string {
	ids := maps.Keys(m.set)
	slices.Sort(ids)

	return ids
}
