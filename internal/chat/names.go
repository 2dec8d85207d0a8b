package chat

import (
	"sort"
	"sync"
)

// NameSet tracks the display names currently in use across the whole
// process. A name stays claimed until its session releases it.
type NameSet struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func NewNameSet() *NameSet {
	return &NameSet{names: make(map[string]struct{})}
}

// Claim reserves a name. Empty or already-claimed names are rejected.
func (s *NameSet) Claim(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.names[name]; taken {
		return ErrNameTaken
	}
	s.names[name] = struct{}{}
	return nil
}

// Release frees a name for reuse. Releasing an unclaimed name is a no-op.
func (s *NameSet) Release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.names, name)
}

func (s *NameSet) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[name]
	return ok
}

// Active returns the claimed names in sorted order.
func (s *NameSet) Active() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}
