package facestore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

const testChatID int64 = 42

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	return store
}

func TestWriteReadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	data := []byte("png bytes")

	if err := store.EnsureChatDir(testChatID); err != nil {
		t.Fatalf("EnsureChatDir failed: %v", err)
	}
	if err := store.Write(testChatID, "bob", data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.Read(testChatID, "bob")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Read = %q, want %q", got, data)
	}
}

func TestNamesAreLowercased(t *testing.T) {
	store := newTestStore(t)

	if err := store.EnsureChatDir(testChatID); err != nil {
		t.Fatalf("EnsureChatDir failed: %v", err)
	}
	if err := store.Write(testChatID, "BOB", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if !store.Exists(testChatID, "bob") {
		t.Error("Exists(bob) = false after writing BOB")
	}
	if _, err := store.Read(testChatID, "Bob"); err != nil {
		t.Errorf("Read(Bob) failed: %v", err)
	}
}

func TestWriteRejectsPathEscape(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	if err := store.EnsureChatDir(testChatID); err != nil {
		t.Fatalf("EnsureChatDir failed: %v", err)
	}

	err = store.Write(testChatID, "../../etc", []byte("x"))
	if !errors.Is(err, ErrPathEscape) {
		t.Fatalf("Write error = %v, want ErrPathEscape", err)
	}

	// Nothing may have been written anywhere under the root.
	entries, err := os.ReadDir(filepath.Join(root, "42"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("chat directory not empty after rejected write: %v", entries)
	}
	if _, err := os.Stat(filepath.Join(root, "etc.png")); err == nil {
		t.Error("escaped file was written")
	}
}

func TestReadRejectsPathEscape(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Read(testChatID, "../../etc/passwd"); !errors.Is(err, ErrPathEscape) {
		t.Errorf("Read error = %v, want ErrPathEscape", err)
	}
}

func TestListReturnsStoredNames(t *testing.T) {
	store := newTestStore(t)

	if err := store.EnsureChatDir(testChatID); err != nil {
		t.Fatalf("EnsureChatDir failed: %v", err)
	}
	for _, name := range []string{"bob", "alice"} {
		if err := store.Write(testChatID, name, []byte("x")); err != nil {
			t.Fatalf("Write(%s) failed: %v", name, err)
		}
	}

	names, err := store.List(testChatID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Errorf("List = %v, want [alice bob]", names)
	}
}

func TestListUnknownChatIsEmpty(t *testing.T) {
	store := newTestStore(t)

	names, err := store.List(999)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List = %v, want empty", names)
	}
}

func TestFacesAreScopedPerChat(t *testing.T) {
	store := newTestStore(t)

	if err := store.EnsureChatDir(1); err != nil {
		t.Fatalf("EnsureChatDir failed: %v", err)
	}
	if err := store.Write(1, "bob", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if store.Exists(2, "bob") {
		t.Error("face from chat 1 visible in chat 2")
	}
}
