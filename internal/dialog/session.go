package dialog

// Session tracks one chat's conversation state. A session is owned by
// the single goroutine processing that chat's turns; the bot's
// per-chat workers serialize access.
type Session struct {
	ChatID int64
	State  State

	// PendingFileID is the uploaded-but-unnamed face image, set while
	// the flow is past WaitingPicture.
	PendingFileID string

	// PendingName is the colliding name awaiting override confirmation.
	PendingName string

	// PromptMessageID correlates the next inbound reply with this
	// session: only a direct reply to it continues the flow.
	PromptMessageID int64
}

func (s *Session) reset() {
	s.State = WaitingMessage
	s.PendingFileID = ""
	s.PendingName = ""
	s.PromptMessageID = 0
}
