package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// fileNames overrides the default "<collection>.json" file name.
var fileNames = map[string]string{
	Messages: "contact_messages.json",
}

// FileStore keeps each collection in its own JSON file inside a directory.
// Files are replaced by writing a temp file and renaming it over the target.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(collection string) string {
	name, ok := fileNames[collection]
	if !ok {
		name = collection + ".json"
	}
	return filepath.Join(s.dir, name)
}

func (s *FileStore) Read(ctx context.Context, collection string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	return data, err
}

type stagedFile struct {
	target   string
	tmp      string
	previous []byte
	existed  bool
	renamed  bool
}

// Write stages every document in a temp file before renaming any of them.
// If a rename fails, targets that were already replaced get their previous
// content back.
func (s *FileStore) Write(ctx context.Context, docs ...Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make([]*stagedFile, 0, len(docs))
	defer func() {
		for _, st := range staged {
			if !st.renamed {
				_ = os.Remove(st.tmp)
			}
		}
	}()

	for _, doc := range docs {
		st := &stagedFile{target: s.path(doc.Collection)}
		prev, err := os.ReadFile(st.target)
		switch {
		case err == nil:
			st.previous, st.existed = prev, true
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("read %s: %w", st.target, err)
		}

		tmp, err := writeTemp(st.target, doc.Data)
		if err != nil {
			return err
		}
		st.tmp = tmp
		staged = append(staged, st)
	}

	for i, st := range staged {
		if err := os.Rename(st.tmp, st.target); err != nil {
			restore(staged[:i])
			return fmt.Errorf("replace %s: %w", st.target, err)
		}
		st.renamed = true
	}
	return nil
}

func restore(done []*stagedFile) {
	for _, st := range done {
		if !st.existed {
			if err := os.Remove(st.target); err != nil {
				log.Printf("Failed to roll back %s: %v", st.target, err)
			}
			continue
		}
		tmp, err := writeTemp(st.target, st.previous)
		if err == nil {
			err = os.Rename(tmp, st.target)
		}
		if err != nil {
			_ = os.Remove(tmp)
			log.Printf("Failed to roll back %s: %v", st.target, err)
		}
	}
}

func (s *FileStore) Create(ctx context.Context, collection string, data []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(collection)
	if _, err := os.Stat(target); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	tmp, err := writeTemp(target, data)
	if err != nil {
		return false, err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("create %s: %w", target, err)
	}
	return true, nil
}

func (s *FileStore) Close() error {
	return nil
}

func writeTemp(target string, data []byte) (string, error) {
	tmp := fmt.Sprintf("%s.tmp-%s", target, uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp, nil
}
