package babylon

import (
	"sort"
	"sync"
)

// SnapshotReader answers "has this changed since last time" questions
// against the snapshot of the previous run.
type SnapshotReader interface {
	IncludesFile(path string) bool
	ListFiles() []string
	ContainsMessage(key MessageKey, path string) bool
	HasSameMessage(key MessageKey, path string, current *string) bool
}

// SnapshotWriter is the mutation side of the snapshot. Both operations are
// idempotent per file path.
type SnapshotWriter interface {
	// RegisterFile returns the stable sheet id of path, assigning one if the
	// file is not known yet.
	RegisterFile(path string) (int, error)
	RemoveFiles(paths []string) error
}

// SnapshotFile is the snapshot record of one message file.
type SnapshotFile struct {
	ID       int
	Messages *Messages
}

// Snapshot is the in-memory snapshot. It is safe for concurrent use.
type Snapshot struct {
	mu     sync.RWMutex
	files  map[string]*SnapshotFile
	nextID int
}

var (
	_ SnapshotReader = (*Snapshot)(nil)
	_ SnapshotWriter = (*Snapshot)(nil)
)

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{files: make(map[string]*SnapshotFile), nextID: 1}
}

// IncludesFile reports whether path was known to the previous run.
func (s *Snapshot) IncludesFile(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[path]
	return ok
}

// ListFiles returns all known paths, sorted.
func (s *Snapshot) ListFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ContainsMessage reports whether a message was recorded for key in path.
func (s *Snapshot) ContainsMessage(key MessageKey, path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path]
	return ok && f.Messages.Has(key)
}

// HasSameMessage reports whether the recorded message for key in path equals
// current. An unknown key is never the same.
func (s *Snapshot) HasSameMessage(key MessageKey, path string, current *string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path]
	if !ok {
		return false
	}
	prev, ok := f.Messages.Get(key)
	return ok && sameMessage(prev, current)
}

// RegisterFile implements SnapshotWriter.
func (s *Snapshot) RegisterFile(path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[path]; ok {
		return f.ID, nil
	}
	id := s.nextID
	s.files[path] = &SnapshotFile{ID: id, Messages: NewMessages()}
	s.nextID++
	return id, nil
}

// RemoveFiles implements SnapshotWriter.
func (s *Snapshot) RemoveFiles(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.files, p)
	}
	return nil
}

// RecordMessage stores the primary message translators worked from.
// The file is registered first when unknown.
func (s *Snapshot) RecordMessage(path string, key MessageKey, msg *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[path]
	if !ok {
		f = &SnapshotFile{ID: s.nextID, Messages: NewMessages()}
		s.files[path] = f
		s.nextID++
	}
	if msg != nil {
		msg = Text(*msg)
	}
	f.Messages.Put(key, msg)
}

// FileByID returns the path registered under id.
func (s *Snapshot) FileByID(id int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for p, f := range s.files {
		if f.ID == id {
			return p, true
		}
	}
	return "", false
}

// FileID returns the sheet id of path.
func (s *Snapshot) FileID(path string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path]
	if !ok {
		return 0, false
	}
	return f.ID, true
}

// File returns a copy of the record of path.
func (s *Snapshot) File(path string) (SnapshotFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path]
	if !ok {
		return SnapshotFile{}, false
	}
	return SnapshotFile{ID: f.ID, Messages: f.Messages.Clone()}, true
}

// Clone returns an independent copy, used for dry runs.
func (s *Snapshot) Clone() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := &Snapshot{files: make(map[string]*SnapshotFile, len(s.files)), nextID: s.nextID}
	for p, f := range s.files {
		out.files[p] = &SnapshotFile{ID: f.ID, Messages: f.Messages.Clone()}
	}
	return out
}

// putFile restores a persisted record. Used by the store when loading.
func (s *Snapshot) putFile(path string, f *SnapshotFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = f
	if f.ID >= s.nextID {
		s.nextID = f.ID + 1
	}
}

// setNextID keeps id assignment monotonic across removals.
func (s *Snapshot) setNextID(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.nextID {
		s.nextID = id
	}
}

// NextID returns the id the next registered file will receive.
func (s *Snapshot) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}
