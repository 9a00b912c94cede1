package credential

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	id "trustgrid/pkg/domain"
)

// FileDocumentStore writes verification documents under a root directory,
// one subdirectory per organization. The returned reference is the path
// relative to the root.
type FileDocumentStore struct {
	root string
}

func NewFileDocumentStore(root string) (*FileDocumentStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create document root: %w", err)
	}
	return &FileDocumentStore{root: root}, nil
}

func (s *FileDocumentStore) Save(_ context.Context, orgID id.OrgID, filename string, contents io.Reader) (string, error) {
	dir := filepath.Join(s.root, orgID.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create org document dir: %w", err)
	}

	// Client-supplied filenames are untrusted; keep only the extension and
	// name the file ourselves.
	name := uuid.NewString() + sanitizeExtension(filename)
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create document file: %w", err)
	}
	if _, err := io.Copy(f, contents); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close document: %w", err)
	}
	return filepath.Join(orgID.String(), name), nil
}

func sanitizeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg":
		return ext
	default:
		return ".bin"
	}
}

// InMemoryDocumentStore keeps documents in a map. Test double for the
// filesystem store.
type InMemoryDocumentStore struct {
	docs map[string][]byte
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{docs: make(map[string][]byte)}
}

func (s *InMemoryDocumentStore) Save(_ context.Context, orgID id.OrgID, filename string, contents io.Reader) (string, error) {
	raw, err := io.ReadAll(contents)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	ref := orgID.String() + "/" + filepath.Base(filename)
	s.docs[ref] = raw
	return ref, nil
}

var (
	_ DocumentStore = (*FileDocumentStore)(nil)
	_ DocumentStore = (*InMemoryDocumentStore)(nil)
)
