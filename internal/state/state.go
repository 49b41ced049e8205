package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultDir is the state directory created next to the project being
// reviewed.
const DefaultDir = ".parley"

// Store persists named JSON documents. Implementations must make Save
// all-or-nothing: a document is either fully replaced or untouched.
type Store interface {
	// Load reads the named document into v.
	// Returns false with a nil error when the document does not exist.
	Load(name string, v any) (bool, error)

	// Save writes v as the named document, replacing any previous value.
	Save(name string, v any) error

	// Delete removes the named document. Deleting an absent document
	// is not an error.
	Delete(name string) error
}

// PersistError reports a failed document read or write.
type PersistError struct {
	Op   string // "read", "decode", "encode", "write"
	Name string // document name
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// FileStore keeps each document as pretty-printed JSON in a directory,
// written atomically via a temp file and rename.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created
// lazily on the first Save.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileStore{dir: dir}
}

// Dir returns the directory documents are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load reads the named document into v.
func (s *FileStore) Load(name string, v any) (bool, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &PersistError{Op: "read", Name: name, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &PersistError{Op: "decode", Name: name, Err: err}
	}
	return true, nil
}

// Save writes v atomically (write-to-temp + rename).
func (s *FileStore) Save(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &PersistError{Op: "write", Name: name, Err: err}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &PersistError{Op: "encode", Name: name, Err: err}
	}
	data = append(data, '\n')

	path := s.path(name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return &PersistError{Op: "write", Name: name, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &PersistError{Op: "write", Name: name, Err: err}
	}
	return nil
}

// Delete removes the named document.
func (s *FileStore) Delete(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return &PersistError{Op: "write", Name: name, Err: err}
	}
	return nil
}

// MemStore keeps documents in memory. Used in tests and anywhere
// durability is not required.
type MemStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

// Load reads the named document into v.
func (m *MemStore) Load(name string, v any) (bool, error) {
	m.mu.Lock()
	data, ok := m.docs[name]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &PersistError{Op: "decode", Name: name, Err: err}
	}
	return true, nil
}

// Save writes v as the named document.
func (m *MemStore) Save(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &PersistError{Op: "encode", Name: name, Err: err}
	}
	m.mu.Lock()
	m.docs[name] = data
	m.mu.Unlock()
	return nil
}

// Delete removes the named document.
func (m *MemStore) Delete(name string) error {
	m.mu.Lock()
	delete(m.docs, name)
	m.mu.Unlock()
	return nil
}
