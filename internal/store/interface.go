package store

import "github.com/dyndash/combat-provider/internal/domain"

// Entry is one source as loaded by a scraper: its key, its descriptor and,
// when available, its document.
type Entry struct {
	Key      string
	Source   domain.Source
	Document domain.Document
}

// DocumentStore holds the document and descriptor of every source. Reads
// return deep copies; callers never share state with the store.
type DocumentStore interface {
	// Get returns the document stored for source. The second result is
	// false when there is none.
	Get(source string) (domain.Document, bool)

	// Descriptor returns the registry entry for source.
	Descriptor(source string) (domain.Source, bool)

	// Lookup resolves a source that must be present in both the registry and
	// the store. It fails with ErrSourceNotFound or ErrNoData.
	Lookup(source string) (domain.Source, domain.Document, error)

	// GetAll returns every servable document keyed by source name.
	GetAll() map[string]domain.Document

	// Descriptors returns every registered descriptor keyed by source name.
	Descriptors() map[string]domain.Source

	// Update applies fn to a copy of the source's document and stores the
	// result when fn succeeds. The returned document is a copy of the new value.
	Update(source string, fn func(domain.Document) error) (domain.Document, error)

	// ReplaceCategory swaps every source belonging to category for entries.
	// Sources of other categories are untouched. It returns the names of the
	// sources now in the category.
	ReplaceCategory(category domain.Category, entries []Entry) []string
}
