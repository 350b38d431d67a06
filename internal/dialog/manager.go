package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ashureev/faceswap-bot/internal/command"
	"github.com/ashureev/faceswap-bot/internal/domain"
	"github.com/ashureev/faceswap-bot/internal/facestore"
	"github.com/ashureev/faceswap-bot/internal/swap"
)

// Transport is the outbound messaging capability.
type Transport interface {
	// Send posts plain text to a chat.
	Send(ctx context.Context, chatID int64, text string) error

	// Prompt posts text that expects a direct reply, returning the sent
	// message's ID for correlation.
	Prompt(ctx context.Context, chatID int64, text string, replyTo int64) (int64, error)

	// SendPhoto posts PNG bytes as a photo.
	SendPhoto(ctx context.Context, chatID int64, png []byte) error

	// FileLink resolves an uploaded file ID to a download URL.
	FileLink(ctx context.Context, fileID string) (string, error)
}

// Compositor produces the final PNG for a single-turn face command.
type Compositor interface {
	Composite(ctx context.Context, req swap.Request) ([]byte, error)
}

// Fetcher downloads bytes from a URL, used when persisting an uploaded
// face.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// nameRe validates candidate face names after lowercasing.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Manager owns every chat's session and applies the state machine to
// inbound messages.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	transport Transport
	store     facestore.Store
	swapper   Compositor
	fetcher   Fetcher
}

// NewManager wires the dialog machine to its collaborators.
func NewManager(transport Transport, store facestore.Store, swapper Compositor, fetcher Fetcher) *Manager {
	return &Manager{
		sessions:  make(map[int64]*Session),
		transport: transport,
		store:     store,
		swapper:   swapper,
		fetcher:   fetcher,
	}
}

// session returns the chat's session, creating an idle one lazily.
func (m *Manager) session(chatID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		s = &Session{ChatID: chatID, State: WaitingMessage}
		m.sessions[chatID] = s
	}
	return s
}

// HandleMessage processes one inbound message turn for its chat. Turns
// for the same chat must arrive serialized; the bot's per-chat workers
// guarantee that.
func (m *Manager) HandleMessage(ctx context.Context, msg domain.Message) {
	s := m.session(msg.Chat.ID)

	// Only a direct reply to the outstanding prompt continues a
	// multi-turn flow; any other message is read as if the chat were
	// idle, leaving the pending flow registered.
	state := s.State
	if state != WaitingMessage && !msg.IsReplyTo(s.PromptMessageID) {
		state = WaitingMessage
	}

	event := m.deriveEvent(state, msg)

	next, legal := Transition(state, event)
	if event == EventNone || !legal {
		if state != WaitingMessage {
			m.send(ctx, msg.Chat.ID, "I didn't expect that")
			s.reset()
		}
		return
	}

	// A command read from idle interrupts any pending flow.
	if state == WaitingMessage && s.State != WaitingMessage {
		s.reset()
	}

	slog.Debug("dialog transition",
		"chat_id", s.ChatID, "from", state.String(), "event", event.String(), "to", next.String())

	m.runAction(ctx, s, event, msg)

	if next == Final || next == WaitingMessage {
		s.reset()
	} else {
		s.State = next
	}
}

// deriveEvent maps (state, message) onto a machine event. EventNone
// means the message carries no meaning in the given state.
func (m *Manager) deriveEvent(state State, msg domain.Message) Event {
	cmd := command.Parse(msg)

	switch state {
	case WaitingMessage:
		switch cmd.Kind {
		case command.Add:
			return EventAdd
		case command.Start, command.Help, command.FaceWithURL, command.FaceSearch, command.ListFaces:
			return EventSingleCommand
		}
	case WaitingPicture:
		if cmd.Kind != command.Cancel {
			if msg.HasFile() {
				return EventGotFile
			}
			return EventGotInvalidFile
		}
	case WaitingName:
		name := strings.ToLower(msg.Text)
		if !nameRe.MatchString(name) {
			return EventInvalidName
		}
		if m.store.Exists(msg.Chat.ID, name) {
			return EventExistingName
		}
		return EventGotName
	case OverrideName:
		switch strings.ToLower(msg.Text) {
		case "yes":
			return EventGotName
		case "no":
			return EventCancelOverride
		}
	}

	if cmd.Kind == command.Cancel {
		return EventCancel
	}
	return EventNone
}

// runAction fires the entry action for the event being applied.
func (m *Manager) runAction(ctx context.Context, s *Session, event Event, msg domain.Message) {
	switch event {
	case EventCancel:
		m.send(ctx, s.ChatID, "Ok, cancelled")
	case EventAdd:
		m.prompt(ctx, s, msg, "Alright, send me the new face image as a file")
	case EventGotFile:
		s.PendingFileID = msg.Document.FileID
		m.prompt(ctx, s, msg, "What's the name of the new face?")
	case EventInvalidName:
		m.prompt(ctx, s, msg, "Invalid name, it has to be made of alphanumeric characters only, no spaces")
	case EventGotInvalidFile:
		m.prompt(ctx, s, msg, "You have to send the new face as a file")
	case EventExistingName:
		s.PendingName = strings.ToLower(msg.Text)
		m.prompt(ctx, s, msg, "That face already exists, do you want to override it? (yes/no)")
	case EventCancelOverride:
		s.PendingName = ""
		m.prompt(ctx, s, msg, "Ok, I won't override it, give me a new name")
	case EventGotName:
		m.saveFace(ctx, s, msg)
	case EventSingleCommand:
		m.dispatchCommand(ctx, msg)
	}
}

func (m *Manager) send(ctx context.Context, chatID int64, text string) {
	if err := m.transport.Send(ctx, chatID, text); err != nil {
		slog.Error("send message failed", "chat_id", chatID, "error", err)
	}
}

// prompt sends a force-reply message and records its ID so the next
// reply routes back into this session.
func (m *Manager) prompt(ctx context.Context, s *Session, msg domain.Message, text string) {
	id, err := m.transport.Prompt(ctx, s.ChatID, text, msg.MessageID)
	if err != nil {
		slog.Error("prompt failed", "chat_id", s.ChatID, "error", err)
		return
	}
	s.PromptMessageID = id
}

// saveFace persists the pending face under its confirmed name.
func (m *Manager) saveFace(ctx context.Context, s *Session, msg domain.Message) {
	name := s.PendingName
	if name == "" {
		name = strings.ToLower(msg.Text)
	}

	if err := m.persistFace(ctx, s.ChatID, name, s.PendingFileID); err != nil {
		slog.Error("save face failed", "chat_id", s.ChatID, "name", name, "error", err)
		m.send(ctx, s.ChatID, "Sorry, I couldn't save that face, try again later")
		return
	}
	m.send(ctx, s.ChatID, "Got it! The new face is saved.")
}

func (m *Manager) persistFace(ctx context.Context, chatID int64, name, fileID string) error {
	if err := m.store.EnsureChatDir(chatID); err != nil {
		return err
	}
	link, err := m.transport.FileLink(ctx, fileID)
	if err != nil {
		return fmt.Errorf("resolve file link: %w", err)
	}
	data, err := m.fetcher.Fetch(ctx, link)
	if err != nil {
		return fmt.Errorf("download face: %w", err)
	}
	return m.store.Write(chatID, name, data)
}

// dispatchCommand handles the single-turn commands.
func (m *Manager) dispatchCommand(ctx context.Context, msg domain.Message) {
	cmd := command.Parse(msg)
	chatID := msg.Chat.ID

	switch cmd.Kind {
	case command.Start:
		m.send(ctx, chatID, startText)
	case command.Help:
		m.send(ctx, chatID, helpText)
	case command.ListFaces:
		m.listFaces(ctx, chatID)
	case command.FaceWithURL, command.FaceSearch:
		m.composite(ctx, chatID, cmd)
	}
}

func (m *Manager) listFaces(ctx context.Context, chatID int64) {
	names, err := m.store.List(chatID)
	if err != nil {
		slog.Error("list faces failed", "chat_id", chatID, "error", err)
		m.send(ctx, chatID, "Sorry, I couldn't list the faces right now")
		return
	}
	if len(names) == 0 {
		m.send(ctx, chatID, "No faces stored for this chat yet, use /add to create one")
		return
	}
	sort.Strings(names)
	m.send(ctx, chatID, "Faces in this chat:\n"+strings.Join(names, "\n"))
}

// composite runs the pipeline for /face and /combine. Pipeline errors
// are relayed to the user as their message, never propagated.
func (m *Manager) composite(ctx context.Context, chatID int64, cmd command.Command) {
	req, err := buildRequest(chatID, cmd)
	if err == nil {
		var png []byte
		png, err = m.swapper.Composite(ctx, req)
		if err == nil {
			if sendErr := m.transport.SendPhoto(ctx, chatID, png); sendErr != nil {
				slog.Error("send photo failed", "chat_id", chatID, "error", sendErr)
			}
			return
		}
	}

	slog.Info("composite failed", "chat_id", chatID, "error", err)
	m.send(ctx, chatID, err.Error())
}

// buildRequest maps command parameters onto a pipeline request: the
// last parameter is the URL or query, any preceding ones are face
// names. A lone parameter means "use a random stored face".
func buildRequest(chatID int64, cmd command.Command) (swap.Request, error) {
	if len(cmd.Params) == 0 {
		hint := "a search query is required, e.g. /face bob+power rangers"
		if cmd.Kind == command.FaceWithURL {
			hint = "an image URL is required, e.g. /combine bob+https://example.com/pic.jpg"
		}
		return swap.Request{}, &swap.MissingParameterError{Hint: hint}
	}

	req := swap.Request{ChatID: chatID}
	last := cmd.Params[len(cmd.Params)-1]
	for _, name := range cmd.Params[:len(cmd.Params)-1] {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			req.FaceNames = append(req.FaceNames, name)
		}
	}

	if cmd.Kind == command.FaceWithURL {
		req.URL = last
	} else {
		req.Query = last
	}
	return req, nil
}
