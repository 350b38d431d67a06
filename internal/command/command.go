// Package command parses raw message text into typed bot commands.
package command

import (
	"regexp"
	"strings"

	"github.com/ashureev/faceswap-bot/internal/domain"
)

// Kind identifies a recognized bot command.
type Kind string

const (
	Start       Kind = "start"
	Help        Kind = "help"
	Add         Kind = "add"
	Cancel      Kind = "cancel"
	FaceWithURL Kind = "face_with_url"
	FaceSearch  Kind = "face_search"
	ListFaces   Kind = "list_faces"
	Invalid     Kind = "invalid"
)

// commandRe matches /<name>[@<botHandle>] <args>. The handle suffix is
// what Telegram appends to address a bot in groups; it is discarded.
var commandRe = regexp.MustCompile(`^/(\w+)(?:@\w+)?(?:\s+(.+))?`)

// Command is an immutable parsed command. Params are the "+"-delimited
// arguments in order, so a single parameter may contain spaces.
type Command struct {
	Kind    Kind
	Params  []string
	Message domain.Message
}

// IsValid reports whether the command was recognized.
func (c Command) IsValid() bool {
	return c.Kind != Invalid
}

// Parse extracts a typed command from a message. Messages whose text
// (or caption) does not begin with "/" or whose name is unknown yield
// Kind == Invalid; callers must check validity before use.
func Parse(msg domain.Message) Command {
	cmd := Command{Kind: Invalid, Message: msg}

	match := commandRe.FindStringSubmatch(msg.CommandText())
	if match == nil {
		return cmd
	}

	kind, ok := kindOf(match[1])
	if !ok {
		return cmd
	}
	cmd.Kind = kind

	if args := strings.TrimSpace(match[2]); args != "" {
		cmd.Params = strings.Split(args, "+")
	}
	return cmd
}

func kindOf(name string) (Kind, bool) {
	switch strings.ToLower(name) {
	case "start":
		return Start, true
	case "help":
		return Help, true
	case "add":
		return Add, true
	case "cancel":
		return Cancel, true
	case "combine", "facewithurl":
		return FaceWithURL, true
	case "face":
		return FaceSearch, true
	case "faces":
		return ListFaces, true
	}
	return Invalid, false
}
