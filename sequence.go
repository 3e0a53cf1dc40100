package engine

import "sync"

// Sequence hands out monotonically increasing item ids.
//
// A Sequence is owned by whoever builds the producers and is passed to
// each of them; ids are unique only among producers sharing one Sequence.
// Its lock is never held together with a Queue lock.
type Sequence struct {
	mu   sync.Mutex
	next uint64
}

// NewSequence returns a Sequence whose first id is start.
func NewSequence(start uint64) *Sequence {
	return &Sequence{next: start}
}

// Next returns the next id.
func (s *Sequence) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	return id
}

// Peek returns the id the next call to Next will hand out.
func (s *Sequence) Peek() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
