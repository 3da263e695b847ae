package favorites

// MemoryStore keeps the persisted set in memory, for tests.
type MemoryStore struct {
	favorites []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the last saved set.
func (m *MemoryStore) Load() ([]string, error) {
	out := make([]string, len(m.favorites))
	copy(out, m.favorites)
	return out, nil
}

// Save replaces the saved set.
func (m *MemoryStore) Save(favorites []string) error {
	m.favorites = make([]string, len(favorites))
	copy(m.favorites, favorites)
	return nil
}
