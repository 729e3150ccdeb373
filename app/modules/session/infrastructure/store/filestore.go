package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const activeFileName = "active.json"

// FileStore persists sessions as one JSON file per record plus an active
// pointer file, so sessions survive a process restart.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// recordPath escapes both key parts so arbitrary user names stay within dir.
func (s *FileStore) recordPath(key Key) string {
	name := url.PathEscape(key.EventCode) + "__" + url.PathEscape(key.UserName) + ".json"
	return filepath.Join(s.dir, name)
}

func (s *FileStore) activePath() string {
	return filepath.Join(s.dir, activeFileName)
}

func (s *FileStore) Get(_ context.Context, key Key) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding session file: %w", err)
	}
	return &record, nil
}

func (s *FileStore) Set(_ context.Context, key Key, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	copied.Key = key

	data, err := json.MarshalIndent(&copied, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return s.writeAtomic(s.recordPath(key), data)
}

func (s *FileStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.recordPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session file: %w", err)
	}

	active, err := s.readActive()
	if err == nil && active == key {
		if err := os.Remove(s.activePath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing active pointer: %w", err)
		}
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing session dir: %w", err)
	}

	var keys []Key
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == activeFileName || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			// Skip corrupt files rather than failing the whole listing.
			continue
		}
		keys = append(keys, record.Key)
	}
	return keys, nil
}

func (s *FileStore) ActiveKey(_ context.Context) (Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readActive()
}

func (s *FileStore) readActive() (Key, error) {
	data, err := os.ReadFile(s.activePath())
	if err != nil {
		if os.IsNotExist(err) {
			return Key{}, ErrNoActive
		}
		return Key{}, fmt.Errorf("reading active pointer: %w", err)
	}

	var key Key
	if err := json.Unmarshal(data, &key); err != nil {
		return Key{}, fmt.Errorf("decoding active pointer: %w", err)
	}
	return key, nil
}

func (s *FileStore) SetActiveKey(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("encoding active pointer: %w", err)
	}
	return s.writeAtomic(s.activePath(), data)
}

func (s *FileStore) ClearActive(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.activePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing active pointer: %w", err)
	}
	return nil
}

// writeAtomic writes via a temp file and rename so a crash mid-write never
// leaves a truncated session behind.
func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}
