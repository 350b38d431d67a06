// Package facestore persists face images as one blob per name, scoped
// to a per-chat directory.
package facestore

import "errors"

// ErrPathEscape is returned when a face name would resolve to a
// location outside its chat's directory. It must never be swallowed:
// it signals a maliciously crafted name.
var ErrPathEscape = errors.New("face path escapes the chat directory")

// Store is the face persistence capability used by the dialog machine
// and the compositing pipeline. Names are case-normalized to lowercase
// by implementations.
type Store interface {
	// EnsureChatDir creates the chat's face directory if missing.
	EnsureChatDir(chatID int64) error

	// Exists reports whether a face with the given name is stored.
	Exists(chatID int64, name string) bool

	// Write stores the face image, replacing any previous blob.
	Write(chatID int64, name string, data []byte) error

	// Read returns the stored face image bytes.
	Read(chatID int64, name string) ([]byte, error)

	// List returns the names of all faces stored for the chat.
	List(chatID int64) ([]string, error)
}
