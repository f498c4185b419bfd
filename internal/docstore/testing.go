package docstore

// Seed is a test helper that writes a document directly into the in-memory
// store, overwriting any existing id, so tests can set up records in states the
// public operations would never produce.
func Seed(s Store, collection, id string, data map[string]any) {
	if mem, ok := s.(*inMemoryStore); ok {
		normalized, err := normalize(data)
		if err != nil {
			panic(err)
		}
		mem.mu.Lock()
		defer mem.mu.Unlock()
		docs, ok := mem.collections[collection]
		if !ok {
			docs = make(map[string]entry)
			mem.collections[collection] = docs
		}
		mem.seq++
		docs[id] = entry{seq: mem.seq, data: normalized}
	}
}
