package template

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps records in a map. Records are stored serialized so a
// round trip behaves like FileStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.records))
	for name := range s.records {
		if name != LastUsedName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Load(ctx context.Context, name string) (Template, error) {
	if err := ValidateName(name); err != nil {
		return Template{}, err
	}
	return s.get(name)
}

func (s *MemoryStore) Save(ctx context.Context, tpl Template) error {
	if err := ValidateName(tpl.Name); err != nil {
		return err
	}
	s.put(tpl.Name, tpl)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.records, name)
	return nil
}

func (s *MemoryStore) LoadLastUsed(ctx context.Context) (Template, error) {
	tpl, err := s.get(LastUsedName)
	tpl.Name = ""
	return tpl, err
}

func (s *MemoryStore) SaveLastUsed(ctx context.Context, tpl Template) error {
	s.put(LastUsedName, tpl)
	return nil
}

func (s *MemoryStore) get(name string) (Template, error) {
	s.mu.RLock()
	rec, ok := s.records[name]
	s.mu.RUnlock()

	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	tpl := Deserialize(rec)
	tpl.Name = name
	return tpl, nil
}

func (s *MemoryStore) put(name string, tpl Template) {
	rec := Serialize(tpl)

	s.mu.Lock()
	s.records[name] = rec
	s.mu.Unlock()
}
