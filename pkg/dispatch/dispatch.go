// Package dispatch executes bot commands against the shared state and turns
// their outcome into reply text.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/germanamz/chatrelay/pkg/command"
	"github.com/germanamz/chatrelay/pkg/config"
	"github.com/germanamz/chatrelay/pkg/state"
)

// ErrorPrefix starts every reply that reports a failed command.
const ErrorPrefix = "Error occurred: "

// ErrMissingContent is returned when the chat API answers without any reply text.
var ErrMissingContent = errors.New("remote chat response missing content")

// RemoteError wraps any failure of the chat-completion call.
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string { return "chat api: " + e.Err.Error() }

func (e *RemoteError) Unwrap() error { return e.Err }

// Sender delivers reply text to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Dispatcher runs commands. It is safe for concurrent use; all shared state
// lives in the Store.
type Dispatcher struct {
	store *state.Store
	log   *slog.Logger
}

// New creates a Dispatcher over store. A nil log uses slog.Default().
func New(store *state.Store, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{store: store, log: log}
}

// Execute counts the command and runs it, returning the reply text.
func (d *Dispatcher) Execute(ctx context.Context, cmd command.Command) (string, error) {
	n := d.store.IncrementCounter()
	d.log.DebugContext(ctx, "command received", "command", commandName(cmd), "seq", n)

	switch c := cmd.(type) {
	case command.Help:
		return command.Descriptions(), nil
	case command.ShowConfig:
		return d.showConfig(), nil
	case command.Chat:
		return d.chat(ctx, c.Text)
	case command.UpdateEndpoint:
		cfg := d.store.ReplaceConfig(func(cfg config.Config) config.Config { return cfg.WithBaseURL(c.URL) })
		d.log.InfoContext(ctx, "endpoint updated", "api", cfg)
		return fmt.Sprintf("Endpoint set to %s", cfg.BaseURL), nil
	case command.UpdateModel:
		cfg := d.store.ReplaceConfig(func(cfg config.Config) config.Config { return cfg.WithModel(c.Model) })
		d.log.InfoContext(ctx, "model updated", "api", cfg)
		return fmt.Sprintf("Model set to %s", cfg.Model), nil
	default:
		return "", fmt.Errorf("dispatch: unsupported command %T", cmd)
	}
}

// Answer executes cmd and sends the outcome to chatID. Command failures are
// reported to the user as a normal reply prefixed with ErrorPrefix. Only a
// failure to deliver the reply is returned.
func (d *Dispatcher) Answer(ctx context.Context, sender Sender, chatID int64, cmd command.Command) error {
	reply, err := d.Execute(ctx, cmd)
	if err != nil {
		d.log.ErrorContext(ctx, "command failed",
			"command", commandName(cmd),
			"chat_id", chatID,
			"error", err,
		)
		reply = ErrorPrefix + err.Error()
	}

	if err := sender.Send(ctx, chatID, reply); err != nil {
		return fmt.Errorf("dispatch: send reply: %w", err)
	}

	return nil
}

func commandName(cmd command.Command) string {
	if cmd == nil {
		return "<nil>"
	}
	return cmd.Name()
}

func (d *Dispatcher) showConfig() string {
	snap := d.store.Snapshot()
	tracker := d.store.Usage()

	reply := fmt.Sprintf("Endpoint: %s\nModel: %s\nMessages handled: %d\nTokens used: %s",
		snap.Config.BaseURL,
		snap.Config.Model,
		d.store.Counter(),
		tracker.Total(),
	)
	if last, ok := tracker.Last(); ok {
		reply += fmt.Sprintf("\nLast chat: %s", last)
	}

	return reply
}
