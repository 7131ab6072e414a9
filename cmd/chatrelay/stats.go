package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/germanamz/chatrelay/pkg/state"
)

// reportStats logs handled-command and token totals every interval until ctx
// is done.
func reportStats(ctx context.Context, store *state.Store, log *slog.Logger, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			snap := store.Snapshot()
			tracker := store.Usage()
			tokens := tracker.Total()
			attrs := []any{
				"messages_handled", store.Counter(),
				"chat_calls", tracker.Count(),
				"input_tokens", tokens.InputTokens,
				"output_tokens", tokens.OutputTokens,
				"api", snap.Config,
			}
			if last, ok := tracker.Last(); ok {
				attrs = append(attrs, "last_chat", last.String())
			}
			log.InfoContext(ctx, "usage", attrs...)
		}
	}
}
