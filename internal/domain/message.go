// Package domain contains core domain types for the face-swap bot.
package domain

// Chat identifies a Telegram conversation, direct or group.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Document is a file attachment sent uncompressed. Faces must arrive
// this way so their transparency survives.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// PhotoSize is one rendition of a compressed photo attachment.
type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Message is the subset of a Telegram message the bot acts on.
type Message struct {
	MessageID int64       `json:"message_id"`
	Chat      Chat        `json:"chat"`
	From      *User       `json:"from,omitempty"`
	Text      string      `json:"text,omitempty"`
	Caption   string      `json:"caption,omitempty"`
	Document  *Document   `json:"document,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	ReplyTo   *Message    `json:"reply_to_message,omitempty"`
}

// CommandText returns the text a command is parsed from: the message
// text, or the caption for photo and document messages.
func (m Message) CommandText() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// HasFile reports whether the message carries a document attachment.
// Compressed photos do not count.
func (m Message) HasFile() bool {
	return m.Document != nil && m.Document.FileID != ""
}

// IsReplyTo reports whether the message is a direct reply to messageID.
func (m Message) IsReplyTo(messageID int64) bool {
	return messageID != 0 && m.ReplyTo != nil && m.ReplyTo.MessageID == messageID
}
