package facestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DiskStore implements Store with one PNG file per face under
// <root>/<chatID>/<name>.png.
type DiskStore struct {
	root string
}

// NewDiskStore creates the faces root directory if needed and returns
// a store rooted there.
func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve faces root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create faces root: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

func (s *DiskStore) chatDir(chatID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(chatID, 10))
}

// facePath resolves the blob path for a face, lowercasing the name and
// rejecting anything that would land outside the chat's directory.
// The guard runs before any filesystem access.
func (s *DiskStore) facePath(chatID int64, name string) (string, error) {
	dir := s.chatDir(chatID)
	path := filepath.Join(dir, strings.ToLower(name)+".png")
	if !strings.HasPrefix(path, dir+string(filepath.Separator)) {
		return "", ErrPathEscape
	}
	return path, nil
}

// EnsureChatDir creates the chat's face directory if missing.
func (s *DiskStore) EnsureChatDir(chatID int64) error {
	if err := os.MkdirAll(s.chatDir(chatID), 0o755); err != nil {
		return fmt.Errorf("create chat directory: %w", err)
	}
	return nil
}

// Exists reports whether a face with the given name is stored.
func (s *DiskStore) Exists(chatID int64, name string) bool {
	path, err := s.facePath(chatID, name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Write stores the face image, replacing any previous blob.
func (s *DiskStore) Write(chatID int64, name string, data []byte) error {
	path, err := s.facePath(chatID, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write face %q: %w", name, err)
	}
	return nil
}

// Read returns the stored face image bytes.
func (s *DiskStore) Read(chatID int64, name string) ([]byte, error) {
	path, err := s.facePath(chatID, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read face %q: %w", name, err)
	}
	return data, nil
}

// List returns the names of all faces stored for the chat. A chat that
// never stored a face yields an empty list, not an error.
func (s *DiskStore) List(chatID int64) ([]string, error) {
	entries, err := os.ReadDir(s.chatDir(chatID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".png"))
	}
	return names, nil
}
