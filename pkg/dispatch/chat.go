package dispatch

import (
	"context"

	"github.com/germanamz/chatrelay/pkg/modeladapter"
)

// chat relays text to the chat API. The model and the client come from one
// snapshot, and the store lock is released before the network call.
func (d *Dispatcher) chat(ctx context.Context, text string) (string, error) {
	snap := d.store.Snapshot()

	req := modeladapter.UserRequest(snap.Config.Model, text)
	req.MaxTokens = snap.Config.MaxTokens
	req.Temperature = snap.Config.Temperature

	resp, err := snap.Client.Complete(ctx, req)
	if err != nil {
		return "", &RemoteError{Err: err}
	}

	d.store.Usage().Add(resp.Usage)
	d.log.DebugContext(ctx, "chat completed",
		"model", snap.Config.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)

	reply, ok := resp.FirstText()
	if !ok {
		return "", ErrMissingContent
	}

	return reply, nil
}
