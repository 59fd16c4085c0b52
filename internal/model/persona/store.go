package persona

// Store exposes persona retrieval for handlers and the interview service.
type Store interface {
	List() []Persona
	FindByStyle(styleKey string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice; the catalog is static
// configuration so nothing richer is needed.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByStyle looks up a persona by style key.
func (s *MemoryStore) FindByStyle(styleKey string) (Persona, bool) {
	for _, item := range s.items {
		if item.StyleKey == styleKey {
			return item, true
		}
	}
	return Persona{}, false
}
