package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dyndash/combat-provider/internal/domain"
)

type memoryStore struct {
	mu         sync.RWMutex
	documents  map[string]domain.Document
	sources    map[string]domain.Source
	categories map[string]domain.Category
}

// NewMemoryStore creates an empty in-process DocumentStore.
func NewMemoryStore() DocumentStore {
	return &memoryStore{
		documents:  make(map[string]domain.Document),
		sources:    make(map[string]domain.Source),
		categories: make(map[string]domain.Category),
	}
}

func (s *memoryStore) Get(source string) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[source]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

func (s *memoryStore) Descriptor(source string) (domain.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	desc, ok := s.sources[source]
	return desc, ok
}

func (s *memoryStore) Lookup(source string) (domain.Source, domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	desc, ok := s.sources[source]
	if !ok {
		return domain.Source{}, nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, source)
	}
	doc, ok := s.documents[source]
	if !ok {
		return desc, nil, fmt.Errorf("%w: %s", domain.ErrNoData, source)
	}
	return desc, doc.Clone(), nil
}

func (s *memoryStore) GetAll() map[string]domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Document, len(s.documents))
	for name, doc := range s.documents {
		if _, ok := s.sources[name]; !ok {
			continue
		}
		out[name] = doc.Clone()
	}
	return out
}

func (s *memoryStore) Descriptors() map[string]domain.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Source, len(s.sources))
	for name, desc := range s.sources {
		out[name] = desc
	}
	return out
}

func (s *memoryStore) Update(source string, fn func(domain.Document) error) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[source]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, source)
	}
	current, ok := s.documents[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoData, source)
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.documents[source] = next
	return next.Clone(), nil
}

func (s *memoryStore) ReplaceCategory(category domain.Category, entries []Entry) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, c := range s.categories {
		if c != category {
			continue
		}
		delete(s.categories, name)
		delete(s.sources, name)
		delete(s.documents, name)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Key
		s.categories[name] = category
		s.sources[name] = e.Source
		if e.Document != nil {
			s.documents[name] = e.Document.Clone()
		} else {
			delete(s.documents, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
