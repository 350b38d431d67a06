// Package bot runs the update loop: it polls for new messages, filters
// them, and fans them out to one worker goroutine per chat so each
// chat's dialog is processed in order.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/faceswap-bot/internal/command"
	"github.com/ashureev/faceswap-bot/internal/domain"
	"github.com/ashureev/faceswap-bot/internal/track"
)

// workerQueueSize bounds each chat's pending message queue.
const workerQueueSize = 16

// pollBackoff is how long to wait before polling again after an error.
const pollBackoff = 3 * time.Second

// Handler processes a single inbound message.
type Handler interface {
	HandleMessage(ctx context.Context, msg domain.Message)
}

// Updater is the long-polling side of the Telegram client.
type Updater interface {
	GetUpdates(ctx context.Context) ([]domain.Message, error)
}

// Bot owns the poll loop and the per-chat workers.
type Bot struct {
	updates Updater
	handler Handler
	tracker track.Store
	allowed func(chatID int64) bool

	mu      sync.Mutex
	workers map[int64]chan domain.Message
	wg      sync.WaitGroup
}

// New creates a Bot. allowed may be nil, meaning every chat is served.
func New(updates Updater, handler Handler, tracker track.Store, allowed func(int64) bool) *Bot {
	if allowed == nil {
		allowed = func(int64) bool { return true }
	}
	return &Bot{
		updates: updates,
		handler: handler,
		tracker: tracker,
		allowed: allowed,
		workers: make(map[int64]chan domain.Message),
	}
}

// Run polls for updates until ctx is cancelled, then drains the
// workers before returning.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("bot started")

	for {
		msgs, err := b.updates.GetUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Error("poll updates failed", "error", err)
			select {
			case <-time.After(pollBackoff):
			case <-ctx.Done():
			}
			continue
		}

		for _, msg := range msgs {
			b.Dispatch(ctx, msg)
		}

		if ctx.Err() != nil {
			break
		}
	}

	b.shutdown()
	slog.Info("bot stopped")
	return nil
}

// Dispatch routes one message onto its chat's worker queue.
func (b *Bot) Dispatch(ctx context.Context, msg domain.Message) {
	chatID := msg.Chat.ID
	if !b.allowed(chatID) {
		slog.Debug("message from disallowed chat dropped", "chat_id", chatID)
		return
	}

	b.record(ctx, msg)

	select {
	case b.worker(ctx, chatID) <- msg:
	default:
		slog.Warn("chat queue full, message dropped", "chat_id", chatID, "message_id", msg.MessageID)
	}
}

// worker returns the chat's queue, starting its goroutine on first use.
func (b *Bot) worker(ctx context.Context, chatID int64) chan domain.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.workers[chatID]
	if !ok {
		ch = make(chan domain.Message, workerQueueSize)
		b.workers[chatID] = ch
		b.wg.Add(1)
		go b.runWorker(ctx, chatID, ch)
	}
	return ch
}

func (b *Bot) runWorker(ctx context.Context, chatID int64, ch chan domain.Message) {
	defer b.wg.Done()
	for msg := range ch {
		b.handler.HandleMessage(ctx, msg)
	}
	slog.Debug("chat worker stopped", "chat_id", chatID)
}

// record counts valid commands for the usage stats. Failures are
// logged and never block message handling.
func (b *Bot) record(ctx context.Context, msg domain.Message) {
	if b.tracker == nil {
		return
	}
	cmd := command.Parse(msg)
	if !cmd.IsValid() {
		return
	}
	if err := b.tracker.Record(ctx, msg.Chat.ID, string(cmd.Kind)); err != nil {
		slog.Warn("record usage failed", "chat_id", msg.Chat.ID, "error", err)
	}
}

// shutdown closes every worker queue and waits for in-flight turns.
func (b *Bot) shutdown() {
	b.mu.Lock()
	for _, ch := range b.workers {
		close(ch)
	}
	b.workers = make(map[int64]chan domain.Message)
	b.mu.Unlock()
	b.wg.Wait()
}
