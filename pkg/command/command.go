// Package command defines the closed set of bot commands and parses them
// from message text.
package command

import (
	"strings"
	"unicode"
)

// Command is one of Help, ShowConfig, Chat, UpdateEndpoint or UpdateModel.
// The set is closed: only this package can add variants.
type Command interface {
	// Name returns the slash-less command keyword, e.g. "chat".
	Name() string

	command()
}

// Help lists the supported commands.
type Help struct{}

// ShowConfig reports the current endpoint and model.
type ShowConfig struct{}

// Chat forwards Text to the chat API.
type Chat struct {
	Text string
}

// UpdateEndpoint replaces the API base URL.
type UpdateEndpoint struct {
	URL string
}

// UpdateModel replaces the model identifier.
type UpdateModel struct {
	Model string
}

func (Help) Name() string           { return "help" }
func (ShowConfig) Name() string     { return "config" }
func (Chat) Name() string           { return "chat" }
func (UpdateEndpoint) Name() string { return "endpoint" }
func (UpdateModel) Name() string    { return "model" }

func (Help) command()           {}
func (ShowConfig) command()     {}
func (Chat) command()           {}
func (UpdateEndpoint) command() {}
func (UpdateModel) command()    {}

type spec struct {
	name        string
	usage       string
	description string
	build       func(arg string) Command
}

var specs = []spec{
	{"help", "/help", "display this text.", func(string) Command { return Help{} }},
	{"config", "/config", "show the current endpoint and model.", func(string) Command { return ShowConfig{} }},
	{"chat", "/chat <text>", "chat with the model.", func(a string) Command { return Chat{Text: a} }},
	{"endpoint", "/endpoint <url>", "switch the API base URL.", func(a string) Command { return UpdateEndpoint{URL: a} }},
	{"model", "/model <name>", "switch the model.", func(a string) Command { return UpdateModel{Model: a} }},
}

// aliases maps alternative keywords to canonical ones.
var aliases = map[string]string{
	"kimi": "chat",
}

// Parse extracts a command from message text of the form
// "/name[@bot] [argument]". The keyword is case-insensitive and everything
// after the first run of whitespace is the argument, verbatim except for
// surrounding whitespace. Commands addressed to a different bot, unknown
// keywords and plain text report ok=false. An empty botName accepts any
// addressee.
func Parse(text, botName string) (cmd Command, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return nil, false
	}

	head, arg := text[1:], ""
	if i := strings.IndexFunc(head, unicode.IsSpace); i >= 0 {
		head, arg = head[:i], head[i:]
	}

	keyword, addressee, addressed := strings.Cut(head, "@")
	if addressed && botName != "" && !strings.EqualFold(addressee, botName) {
		return nil, false
	}

	keyword = strings.ToLower(keyword)
	if canonical, ok := aliases[keyword]; ok {
		keyword = canonical
	}

	for _, s := range specs {
		if s.name == keyword {
			return s.build(strings.TrimSpace(arg)), true
		}
	}

	return nil, false
}

// Descriptions returns the help text enumerating every command.
func Descriptions() string {
	var b strings.Builder

	b.WriteString("These commands are supported:")
	for _, s := range specs {
		b.WriteString("\n")
		b.WriteString(s.usage)
		b.WriteString(" - ")
		b.WriteString(s.description)
	}

	return b.String()
}
