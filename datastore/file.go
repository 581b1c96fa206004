package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// FileStore keeps one human-readable JSON file per document under root.
// Writes are atomic (temp file, fsync, rename) and the previous version is
// kept as a timestamped backup.
type FileStore struct {
	root      string
	backups   int
	logger    *log.Logger
	mu        sync.Mutex
	checksums map[string]string
}

// NewFile creates the root directory if needed.
func NewFile(root string, backups int, logger *log.Logger) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &FileStore{
		root:      root,
		backups:   backups,
		logger:    logger,
		checksums: make(map[string]string),
	}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name)+".json")
}

// Load reads the document from disk.
func (s *FileStore) Load(_ context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	s.checksums[name] = checksum(data)
	return data, nil
}

// Save rewrites the whole document. Identical content is not rewritten.
func (s *FileStore) Save(_ context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := checksum(data)
	if s.checksums[name] == sum {
		return nil
	}

	file := s.path(name)
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if s.backups > 0 {
		if err := s.createBackup(file); err != nil {
			s.logger.Warn("backup failed", "document", name, "err", err)
		}
	}
	if err := writeFileAtomic(file, data); err != nil {
		return err
	}
	s.checksums[name] = sum
	return nil
}

// Delete removes the document and its backups.
func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	file := s.path(name)
	if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	matches, _ := filepath.Glob(file + ".backup.*")
	for _, m := range matches {
		os.Remove(m)
	}
	delete(s.checksums, name)
	return nil
}

// List returns the names of documents starting with prefix, sorted.
func (s *FileStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	err := filepath.WalkDir(s.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".json")
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op; every Save is already durable.
func (s *FileStore) Close() error { return nil }

// writeFileAtomic performs atomic file write using temporary file and rename
func writeFileAtomic(file string, data []byte) error {
	tmpFile := file + ".tmp"

	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	f, err := os.OpenFile(tmpFile, os.O_RDWR, 0644)
	if err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to open temp file for sync: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	f.Close()

	if err := os.Rename(tmpFile, file); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// createBackup copies the current file aside and prunes old copies.
func (s *FileStore) createBackup(file string) error {
	src, err := os.Open(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	backupFile := fmt.Sprintf("%s.backup.%s", file, time.Now().Format("20060102_150405"))
	dst, err := os.Create(backupFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	s.cleanupOldBackups(file)
	return nil
}

func (s *FileStore) cleanupOldBackups(file string) {
	matches, err := filepath.Glob(file + ".backup.*")
	if err != nil || len(matches) <= s.backups {
		return
	}
	// the timestamp suffix sorts chronologically
	sort.Strings(matches)
	for _, m := range matches[:len(matches)-s.backups] {
		os.Remove(m)
	}
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
