// Package session is the client-side key-value store the navigator reads
// the remembered workspace from and writes it back to. Values are opaque
// strings kept in a small TOML file next to the catalog.
package session

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// KeyWorkspace holds the last workspace the user landed on.
const KeyWorkspace = "workspace"

// Data is a snapshot of the store. Callers get a copy; mutating it does not
// touch the file.
type Data map[string]string

func (d Data) Workspace() (string, bool) {
	value, ok := d[KeyWorkspace]
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

func (d Data) Keys() []string {
	keys := make([]string, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (d Data) clone() Data {
	out := make(Data, len(d))
	for key, value := range d {
		out[key] = value
	}
	return out
}

type fileFormat struct {
	Data map[string]string `toml:"data"`
}

type Store struct {
	path string
}

func Open(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}

// Load reads the current data under a shared lock. A missing file is an
// empty store.
func (s *Store) Load() (Data, error) {
	lock, err := s.lock(false)
	if err != nil {
		return nil, err
	}
	defer unlock(lock)
	return s.read()
}

func (s *Store) Get(key string) (string, bool, error) {
	data, err := s.Load()
	if err != nil {
		return "", false, err
	}
	value, ok := data[key]
	return value, ok, nil
}

func (s *Store) Set(key, value string) error {
	return s.Update(func(d Data) Data {
		d[key] = value
		return d
	})
}

func (s *Store) Delete(key string) error {
	return s.Update(func(d Data) Data {
		delete(d, key)
		return d
	})
}

// Update runs a read-modify-write under an exclusive lock so concurrent
// navigations cannot interleave. The last writer wins.
func (s *Store) Update(fn func(Data) Data) error {
	lock, err := s.lock(true)
	if err != nil {
		return err
	}
	defer unlock(lock)

	current, err := s.read()
	if err != nil {
		return err
	}
	next := fn(current.clone())
	if next == nil {
		next = Data{}
	}
	return s.write(next)
}

func (s *Store) read() (Data, error) {
	var f fileFormat
	if _, err := toml.DecodeFile(s.path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Data{}, nil
		}
		return nil, err
	}
	if f.Data == nil {
		return Data{}, nil
	}
	return Data(f.Data), nil
}

func (s *Store) write(data Data) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmpPath := s.path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(fileFormat{Data: data}); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

func (s *Store) lock(exclusive bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(s.lockPath(), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if exclusive {
		err = flockExclusive(file)
	} else {
		err = flockShared(file)
	}
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

func unlock(file *os.File) {
	if file == nil {
		return
	}
	_ = flockUnlock(file)
	_ = file.Close()
}

// RememberedWorkspace returns the stored selection, if any.
func (s *Store) RememberedWorkspace() (string, bool, error) {
	data, err := s.Load()
	if err != nil {
		return "", false, err
	}
	name, ok := data.Workspace()
	return name, ok, nil
}

func (s *Store) RememberWorkspace(name string) error {
	return s.Set(KeyWorkspace, name)
}

func (s *Store) ForgetWorkspace() error {
	return s.Delete(KeyWorkspace)
}
