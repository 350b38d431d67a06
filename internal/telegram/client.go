// Package telegram is a minimal Telegram Bot API client covering what
// the bot needs: long-poll updates, text and photo replies, and file
// link resolution.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/faceswap-bot/internal/domain"
)

const defaultBaseURL = "https://api.telegram.org"

// Client talks to the Bot API. The update offset is only touched by
// the single polling goroutine, so it needs no locking.
type Client struct {
	token       string
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	pollTimeout time.Duration
	offset      int64
}

// NewClient builds a Bot API client. timeout bounds every call except
// GetUpdates, which long-polls for up to pollTimeout.
func NewClient(token string, pollTimeout, timeout time.Duration) *Client {
	return &Client{
		token:       token,
		baseURL:     defaultBaseURL,
		http:        &http.Client{},
		timeout:     timeout,
		pollTimeout: pollTimeout,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type update struct {
	UpdateID int64           `json:"update_id"`
	Message  *domain.Message `json:"message"`
}

// GetUpdates long-polls for new messages, advancing the update offset
// so each update is delivered once.
func (c *Client) GetUpdates(ctx context.Context) ([]domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout+10*time.Second)
	defer cancel()

	form := url.Values{}
	form.Set("timeout", strconv.Itoa(int(c.pollTimeout/time.Second)))
	if c.offset > 0 {
		form.Set("offset", strconv.FormatInt(c.offset+1, 10))
	}

	result, err := c.call(ctx, "getUpdates", form)
	if err != nil {
		return nil, err
	}

	var updates []update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}

	msgs := make([]domain.Message, 0, len(updates))
	for _, u := range updates {
		if u.UpdateID > c.offset {
			c.offset = u.UpdateID
		}
		if u.Message != nil {
			msgs = append(msgs, *u.Message)
		}
	}
	return msgs, nil
}

// SendOptions controls optional sendMessage behaviour.
type SendOptions struct {
	// ForceReply asks Telegram clients to present a reply prompt so the
	// next message arrives as a direct reply, addressed to the sender
	// only in group chats.
	ForceReply bool
	// ReplyTo is the message being answered; set with ForceReply.
	ReplyTo int64
}

// SendMessage sends text to a chat and returns the sent message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", text)
	if opts != nil && opts.ForceReply {
		markup, err := json.Marshal(map[string]bool{"force_reply": true, "selective": true})
		if err != nil {
			return domain.Message{}, fmt.Errorf("encode reply markup: %w", err)
		}
		form.Set("reply_markup", string(markup))
		if opts.ReplyTo != 0 {
			form.Set("reply_to_message_id", strconv.FormatInt(opts.ReplyTo, 10))
		}
	}

	result, err := c.call(ctx, "sendMessage", form)
	if err != nil {
		return domain.Message{}, err
	}

	var msg domain.Message
	if err := json.Unmarshal(result, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("decode sent message: %w", err)
	}
	return msg, nil
}

// Send posts plain text without expecting a reply.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	_, err := c.SendMessage(ctx, chatID, text, nil)
	return err
}

// Prompt posts text marked force-reply and returns the sent message's
// ID, which callers use to correlate the user's answer.
func (c *Client) Prompt(ctx context.Context, chatID int64, text string, replyTo int64) (int64, error) {
	msg, err := c.SendMessage(ctx, chatID, text, &SendOptions{ForceReply: true, ReplyTo: replyTo})
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendPhoto uploads PNG bytes as a photo.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, png []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	part, err := writer.CreateFormFile("photo", "faceswap.png")
	if err != nil {
		return fmt.Errorf("create photo part: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return fmt.Errorf("write photo bytes: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}

	_, err = c.post(ctx, "sendPhoto", &body, writer.FormDataContentType())
	return err
}

// FileLink resolves an uploaded file ID to a download URL.
func (c *Client) FileLink(ctx context.Context, fileID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("file_id", fileID)

	result, err := c.call(ctx, "getFile", form)
	if err != nil {
		return "", err
	}

	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(result, &file); err != nil {
		return "", fmt.Errorf("decode file info: %w", err)
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("no file path for file id %q", fileID)
	}
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, file.FilePath), nil
}

// Fetch retrieves raw bytes from an arbitrary URL. It implements the
// pipeline's fetcher capability and downloads uploaded face files.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// call posts a form-encoded Bot API method and unwraps the envelope.
func (c *Client) call(ctx context.Context, method string, form url.Values) (json.RawMessage, error) {
	return c.post(ctx, method, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (c *Client) post(ctx context.Context, method string, body io.Reader, contentType string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("%s failed: %s", method, parsed.Description)
	}
	return parsed.Result, nil
}
