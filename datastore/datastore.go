// Package datastore is the persistence port used by every store in the bot.
// A document is a named blob of JSON that is always read and rewritten whole.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrNotFound is returned by Load when the document does not exist yet.
var ErrNotFound = errors.New("datastore: document not found")

// Backend stores whole JSON documents by name. Names may contain "/" to
// group documents, e.g. "conversations/1234".
type Backend interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Open builds the backend selected by kind, rooted at dataDir.
func Open(kind, dataDir string, backups int, logger *log.Logger) (Backend, error) {
	switch kind {
	case KindFile, "":
		return NewFile(dataDir, backups, logger)
	case KindSQLite:
		return NewSQLite(filepath.Join(dataDir, "compagnon.db"))
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", kind)
	}
}

func validName(name string) error {
	if name == "" {
		return fmt.Errorf("document name cannot be empty")
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, "..") || strings.Contains(name, `\`) {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}
