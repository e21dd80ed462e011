package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/0xsend/homebrew-canton/internal/log"
)

// Store reads and writes the manifest file. Concurrent tapgen
// processes are serialized through a flock on a sidecar lock file;
// in-process callers through a mutex.
type Store struct {
	path   string
	logger log.Logger
	mu     sync.RWMutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for corruption warnings.
func WithLogger(logger log.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store for the manifest at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:   path,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the manifest file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}

// Load reads the manifest from disk. A missing file yields an empty
// manifest. A file that cannot be parsed also yields an empty
// manifest with a logged warning, so a corrupted checkout never
// blocks regeneration; the next save rewrites it wholesale.
func (s *Store) Load() (*Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return New(), nil
	}

	lock, err := acquireLock(s.lockPath(), lockShared)
	if err != nil {
		return nil, &PersistError{Path: s.path, Op: "lock", Err: err}
	}
	defer lock.release()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &PersistError{Path: s.path, Op: "read", Err: err}
	}

	m, err := parse(data)
	if err != nil {
		s.logger.Warn("manifest unreadable, starting from empty",
			"path", s.path, "error", err)
		return New(), nil
	}
	return m, nil
}

// Save writes the manifest atomically, stamping updated_at. The temp
// file is synced before the rename so a crash leaves either the old
// or the new manifest, never a torn one.
func (s *Store) Save(m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	// Map keys marshal in sorted order, so the file diffs cleanly
	// between runs.
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return &PersistError{Path: s.path, Op: "marshal", Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistError{Path: s.path, Op: "mkdir", Err: err}
	}

	lock, err := acquireLock(s.lockPath(), lockExclusive)
	if err != nil {
		return &PersistError{Path: s.path, Op: "lock", Err: err}
	}
	defer lock.release()

	tmp, err := os.CreateTemp(dir, ".versions-*.json")
	if err != nil {
		return &PersistError{Path: s.path, Op: "create temp", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &PersistError{Path: s.path, Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &PersistError{Path: s.path, Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistError{Path: s.path, Op: "close", Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return &PersistError{Path: s.path, Op: "chmod", Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return &PersistError{Path: s.path, Op: "rename", Err: err}
	}
	return nil
}

// parse decodes manifest bytes, rejecting unknown keys so schema
// drift surfaces as a warning instead of silently dropping data.
func parse(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, &ParseError{Err: err}
	}
	if dec.More() {
		return nil, &ParseError{Err: fmt.Errorf("trailing data after manifest document")}
	}
	if m.Versions == nil {
		m.Versions = make(map[string]Entry)
	}
	return &m, nil
}
