// Package telegram runs the chat-facing side of the storyteller: a long-poll
// update loop feeding per-channel serial workers, so every mutation of a
// channel's session happens one at a time while separate channels proceed in
// parallel.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kdsk0521/lorekeeper/game"
	"github.com/kdsk0521/lorekeeper/internal/channelruntime/worker"
	"github.com/kdsk0521/lorekeeper/internal/retryutil"
	"github.com/kdsk0521/lorekeeper/narrator"
)

type Options struct {
	Token   string
	BaseURL string

	PollTimeout    time.Duration
	MaxConcurrency int
	QueueSize      int

	// AllowedChatIDs restricts which chats the bot serves; empty means all.
	AllowedChatIDs []int64

	AttachmentMaxBytes int64

	Logger   *slog.Logger
	HTTP     *http.Client
	Sessions *game.Store
	Texts    *game.TextStore
	Narrator *narrator.Narrator
}

type job struct {
	chatID      int64
	userID      int64
	messageID   int64
	displayName string
	text        string
	doc         *document
}

// lockedRoller makes one rand.Rand safe for the cross-channel workers.
type lockedRoller struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRoller) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

type Runtime struct {
	logger      *slog.Logger
	api         *botAPI
	sessions    *game.Store
	texts       *game.TextStore
	narrator    *narrator.Narrator
	roller      game.Roller
	confirms    *confirmRegistry
	confirmWait time.Duration
	maxBytes    int64
	now         func() time.Time
}

// Run blocks on the update loop until ctx ends.
func Run(ctx context.Context, opts Options) error {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return fmt.Errorf("missing telegram bot token")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Sessions == nil || opts.Texts == nil {
		return fmt.Errorf("missing session stores")
	}

	api := newBotAPI(opts.HTTP, opts.BaseURL, token)

	var me *user
	err := retryutil.Do(ctx, logger, "telegram_get_me", 3, 2*time.Second, func(ctx context.Context) error {
		var callErr error
		me, callErr = api.getMe(ctx)
		return callErr
	})
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	logger.Info("telegram_connected", "bot_id", me.ID, "username", me.Username)

	allowed := map[int64]bool{}
	for _, id := range opts.AllowedChatIDs {
		allowed[id] = true
	}

	rt := &Runtime{
		logger:      logger,
		api:         api,
		sessions:    opts.Sessions,
		texts:       opts.Texts,
		narrator:    opts.Narrator,
		roller:      &lockedRoller{r: rand.New(rand.NewSource(time.Now().UnixNano()))},
		confirms:    newConfirmRegistry(),
		confirmWait: confirmWindow,
		maxBytes:    opts.AttachmentMaxBytes,
		now:         time.Now,
	}

	pool := worker.NewPool[job](worker.Options[job]{
		Ctx:            ctx,
		MaxConcurrency: opts.MaxConcurrency,
		Buffer:         opts.QueueSize,
		Handle:         rt.handle,
	})

	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}

	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		updates, next, err := api.getUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !isPollTimeoutError(err) {
				logger.Warn("telegram_poll_error", "error", err.Error())
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(2 * time.Second):
				}
			}
			continue
		}
		offset = next

		for _, u := range updates {
			msg := u.Message
			if msg == nil {
				msg = u.EditedMessage
			}
			if msg == nil || msg.Chat == nil || msg.From == nil || msg.From.IsBot {
				continue
			}
			if len(allowed) > 0 && !allowed[msg.Chat.ID] {
				continue
			}
			text := msg.Text
			if text == "" {
				text = msg.Caption
			}
			// A pending destructive-command confirmation from the same
			// requester consumes the message before dispatch.
			if rt.confirms.deliver(msg.Chat.ID, msg.From.ID, text) {
				continue
			}
			if strings.TrimSpace(text) == "" && msg.Document == nil {
				continue
			}
			j := job{
				chatID:      msg.Chat.ID,
				userID:      msg.From.ID,
				messageID:   msg.MessageID,
				displayName: displayName(msg.From),
				text:        text,
				doc:         msg.Document,
			}
			channel := strconv.FormatInt(msg.Chat.ID, 10)
			if err := pool.Enqueue(ctx, channel, j); err != nil {
				return err
			}
			logger.Debug("job_enqueued", "chat_id", msg.Chat.ID, "queue_len", pool.QueueLen(channel))
		}
	}
}

// startTyping keeps the "typing…" indicator alive until the returned stop
// function runs.
func (rt *Runtime) startTyping(ctx context.Context, chatID int64) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(4 * time.Second)
		defer ticker.Stop()
		_ = rt.api.sendChatAction(ctx, chatID, "typing")
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = rt.api.sendChatAction(ctx, chatID, "typing")
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (rt *Runtime) reply(ctx context.Context, j job, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := rt.api.sendChunked(ctx, j.chatID, text, j.messageID); err != nil {
		rt.logger.Warn("telegram_send_error", "chat_id", j.chatID, "error", err.Error())
	}
}

func (rt *Runtime) react(ctx context.Context, j job, emoji string) {
	if err := rt.api.setMessageReaction(ctx, j.chatID, j.messageID, emoji); err != nil {
		rt.logger.Warn("telegram_reaction_error", "chat_id", j.chatID, "error", err.Error())
	}
}
