// Package storage provides the bundled filesystem persistence hook: one
// file per document under a configured data directory.
package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Polqt/siphonophore/hook"
)

// FileStorage persists each document's encoded state to its own file.
// It implements OnLoadDocument and BeforeCloseDirty and logs on unload;
// every other hook method is a no-op via the embedded NoopHook.
type FileStorage struct {
	hook.NoopHook
	dir string
	log *slog.Logger
}

// NewFileStorage creates the data directory (if absent) and returns a
// hook ready to register with a Chain.
func NewFileStorage(dir string, log *slog.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStorage{dir: dir, log: log}, nil
}

// path maps a doc id to a filesystem-safe path under dir, replacing any
// character outside [A-Za-z0-9_-] with one underscore so arbitrary doc ids can't
// escape the directory or collide with path separators.
func (f *FileStorage) path(docID string) string {
	var b strings.Builder
	b.Grow(len(docID))
	for _, r := range docID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return filepath.Join(f.dir, b.String()+".bin")
}

func (f *FileStorage) OnLoadDocument(_ context.Context, p hook.OnLoadDocumentPayload) ([]byte, error) {
	data, err := os.ReadFile(f.path(p.DocID))
	if os.IsNotExist(err) {
		f.log.Info("new document", "doc_id", p.DocID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.log.Info("loaded document", "doc_id", p.DocID, "bytes", len(data))
	return data, nil
}

func (f *FileStorage) BeforeCloseDirty(_ context.Context, p hook.BeforeCloseDirtyPayload) error {
	f.log.Info("saving document", "doc_id", p.DocID, "bytes", len(p.State))
	return os.WriteFile(f.path(p.DocID), p.State, 0o644)
}

func (f *FileStorage) AfterUnloadDocument(p hook.AfterUnloadDocumentPayload) {
	f.log.Info("unloaded document", "doc_id", p.DocID)
}

var _ hook.Hook = (*FileStorage)(nil)
