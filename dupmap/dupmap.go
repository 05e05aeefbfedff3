package dupmap

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Map relates submission ids to the local path their content was stored at.
// An empty path means the content was gone upstream and is not worth
// revisiting. The zero value is not usable; construct with Load. All methods
// are safe for concurrent use; disk io happens only in Load and Save.
type Map struct {
	path string

	mtx     sync.Mutex // Protects the "entries" field.
	entries map[string]string

	saveMtx sync.Mutex // Serializes Save's write-then-rename.
}

// Load reads the map persisted at path. A missing, unreadable, or corrupt
// record yields an empty map; corruption is logged, never fatal.
func Load(path string) *Map {
	m := &Map{
		path:    path,
		entries: map[string]string{},
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warnf("cannot read duplicate map, starting empty: path=%s", path)
		}
		return m
	}

	if err := json.Unmarshal(b, &m.entries); err != nil {
		log.WithError(err).Warnf("corrupt duplicate map, starting empty: path=%s", path)
		m.entries = map[string]string{}
		return m
	}

	return m
}

// Contains returns true if id has already been recorded.
func (m *Map) Contains(id string) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	_, ok := m.entries[id]
	return ok
}

// Record stores the path downloaded for id. The first record for an id
// wins; a repeat is logged and dropped.
func (m *Map) Record(id string, path string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if prev, ok := m.entries[id]; ok {
		log.Warnf("duplicate map already holds id=%s path=%s, dropping path=%s", id, prev, path)
		return
	}

	m.entries[id] = path
}

// Len returns the number of recorded entries.
func (m *Map) Len() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return len(m.entries)
}

// Snapshot returns a copy of the current entries.
func (m *Map) Snapshot() map[string]string {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	entries := make(map[string]string, len(m.entries))
	for id, path := range m.entries {
		entries[id] = path
	}

	return entries
}

// Path returns where the map is persisted.
func (m *Map) Path() string {
	return m.path
}

// Save atomically replaces the persisted record with the current entries.
// The map is written to a sibling temp file and renamed into place, so an
// interrupt mid-write cannot clobber the previous good state.
func (m *Map) Save() error {
	m.saveMtx.Lock()
	defer m.saveMtx.Unlock()

	b, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}

	tmpPath := m.path + ".tmp"
	if err := os.WriteFile(tmpPath, b, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, m.path)
}
