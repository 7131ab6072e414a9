// Package telegram connects the dispatcher to the Telegram Bot API using
// long polling. Every recognized command runs in its own goroutine.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/germanamz/chatrelay/pkg/command"
	"github.com/germanamz/chatrelay/pkg/dispatch"
)

// MaxMessageLength is Telegram's limit on the text of a single message, in
// UTF-16 code units.
const MaxMessageLength = 4096

// API is the subset of *tgbotapi.BotAPI the bot needs.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler answers a parsed command. *dispatch.Dispatcher implements it.
type Handler interface {
	Answer(ctx context.Context, sender dispatch.Sender, chatID int64, cmd command.Command) error
}

var (
	_ Handler         = (*dispatch.Dispatcher)(nil)
	_ dispatch.Sender = (*Bot)(nil)
	_ API             = (*tgbotapi.BotAPI)(nil)
)

// Connect authenticates against the Bot API. An empty endpoint uses the
// public Telegram server; otherwise it is a format string like
// tgbotapi.APIEndpoint ("https://host/bot%s/%s").
func Connect(token, endpoint string, verbose bool) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{})
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	api.Debug = verbose

	return api, nil
}

// Options configures a Bot.
type Options struct {
	// Name is the bot's username; commands addressed to other bots are ignored.
	Name string
	// Timeout is the long-poll timeout in seconds.
	Timeout int
	Log     *slog.Logger
}

// Bot polls for updates and hands recognized commands to a Handler.
type Bot struct {
	api     API
	handler Handler
	name    string
	timeout int
	log     *slog.Logger

	inflight sync.WaitGroup
}

// New creates a Bot. It does not start polling.
func New(api API, handler Handler, opts Options) *Bot {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	return &Bot{
		api:     api,
		handler: handler,
		name:    opts.Name,
		timeout: opts.Timeout,
		log:     opts.Log,
	}
}

// Run polls until ctx is cancelled or the update channel closes, then waits
// for in-flight commands to finish. Command goroutines receive ctx, so
// cancelling it also aborts their downstream calls.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout

	updates := b.api.GetUpdatesChan(u)
	defer b.inflight.Wait()

	b.log.InfoContext(ctx, "polling for updates", "bot", b.name)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.InfoContext(ctx, "stopped polling")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handle(ctx, upd)
		}
	}
}

// handle starts a goroutine for upd if it carries a recognized command.
// Anything else is ignored.
func (b *Bot) handle(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	cmd, ok := command.Parse(msg.Text, b.name)
	if !ok {
		return
	}

	chatID := msg.Chat.ID

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.ErrorContext(ctx, "command panicked",
					"command", cmd.Name(),
					"chat_id", chatID,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()

		if err := b.handler.Answer(ctx, b, chatID, cmd); err != nil {
			b.log.ErrorContext(ctx, "failed to answer update",
				"update_id", upd.UpdateID,
				"command", cmd.Name(),
				"chat_id", chatID,
				"error", err,
			)
		}
	}()
}

// Send delivers text to chatID, split into as many messages as Telegram's
// length limit requires. It stops at the first failed part.
func (b *Bot) Send(_ context.Context, chatID int64, text string) error {
	for _, part := range Split(text, MaxMessageLength) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			return fmt.Errorf("telegram: send message: %w", err)
		}
	}
	return nil
}

// Split cuts text into pieces of at most limit UTF-16 code units, the unit
// Telegram measures message length in, preferring to break after a newline
// in the second half of a piece. Empty text yields one empty piece.
func Split(text string, limit int) []string {
	runes := []rune(text)

	var parts []string
	for {
		n, units, cut := 0, 0, 0
		for n < len(runes) {
			w := utf16.RuneLen(runes[n])
			if units+w > limit {
				break
			}
			if runes[n] == '\n' && units >= limit/2 {
				cut = n + 1
			}
			units += w
			n++
		}

		if n == len(runes) {
			return append(parts, string(runes))
		}
		if cut == 0 {
			cut = max(n, 1)
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
}
