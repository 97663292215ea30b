// Package corpus stores the original documents of each assistant, one directory per assistant.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"study-assistant-be/pkg/rag"
)

// Store is the source of truth for which original files an assistant owns. Every path is
// assistant-scoped; deleting something that does not exist is not an error.
type Store interface {
	EnsureDir(assistant string) error
	WriteFile(assistant, filename string, data []byte) error
	ReadFile(assistant, filename string) ([]byte, error)
	ListFiles(assistant string) ([]string, error)
	DeleteFile(assistant, filename string) error
	DeleteAll(assistant string) error
	Path(assistant, filename string) string
	Root() string
}

type FSStore struct {
	root string
	perm fs.FileMode
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root, perm: 0o755}
}

func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) dir(assistant string) string {
	return filepath.Join(s.root, assistant)
}

func (s *FSStore) Path(assistant, filename string) string {
	return filepath.Join(s.root, assistant, filename)
}

func (s *FSStore) EnsureDir(assistant string) error {
	if err := rag.ValidateAssistantName(assistant); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir(assistant), s.perm); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}
	return nil
}

func (s *FSStore) WriteFile(assistant, filename string, data []byte) error {
	if err := s.check(assistant, filename); err != nil {
		return err
	}
	// Write then rename so a crash never leaves a half-written document behind.
	tmp, err := os.CreateTemp(s.dir(assistant), "."+filename+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filename, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(assistant, filename)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

func (s *FSStore) ReadFile(assistant, filename string) ([]byte, error) {
	if err := s.check(assistant, filename); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(assistant, filename))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, rag.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return data, nil
}

// ListFiles returns the regular files of the assistant sorted by name. A missing directory
// lists as empty.
func (s *FSStore) ListFiles(assistant string) ([]string, error) {
	if err := rag.ValidateAssistantName(assistant); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir(assistant))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || isTemp(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *FSStore) DeleteFile(assistant, filename string) error {
	if err := s.check(assistant, filename); err != nil {
		return err
	}
	err := os.Remove(s.Path(assistant, filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", filename, err)
	}
	return nil
}

func (s *FSStore) DeleteAll(assistant string) error {
	if err := rag.ValidateAssistantName(assistant); err != nil {
		return err
	}
	if err := os.RemoveAll(s.dir(assistant)); err != nil {
		return fmt.Errorf("delete corpus dir: %w", err)
	}
	return nil
}

func (s *FSStore) check(assistant, filename string) error {
	if err := rag.ValidateAssistantName(assistant); err != nil {
		return err
	}
	return rag.ValidateFilename(filename)
}

func isTemp(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
