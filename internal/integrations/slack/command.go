package slack

import (
	"errors"
	"net/url"
	"strings"
)

// Subcommands understood by the slash command.
const (
	SubcommandScore    = "score"
	SubcommandSentinel = "sentinel"
	SubcommandHelp     = "help"
)

// ErrUnknownSubcommand is returned for text that does not start with a known subcommand.
var ErrUnknownSubcommand = errors.New("slack: unknown subcommand")

// Command is a parsed slash-command invocation.
type Command struct {
	TeamID      string
	UserID      string
	UserName    string
	ChannelID   string
	Command     string
	Subcommand  string
	Domain      string
	ResponseURL string
}

// ParseCommand reads the form fields Slack posts and splits the text into
// a subcommand and a dealership domain.
func ParseCommand(form url.Values) (Command, error) {
	cmd := Command{
		TeamID:      form.Get("team_id"),
		UserID:      form.Get("user_id"),
		UserName:    form.Get("user_name"),
		ChannelID:   form.Get("channel_id"),
		Command:     form.Get("command"),
		ResponseURL: form.Get("response_url"),
	}

	fields := strings.Fields(strings.ToLower(form.Get("text")))
	if len(fields) == 0 {
		cmd.Subcommand = SubcommandHelp
		return cmd, nil
	}

	switch fields[0] {
	case SubcommandScore, SubcommandSentinel:
		cmd.Subcommand = fields[0]
	case SubcommandHelp:
		cmd.Subcommand = SubcommandHelp
		return cmd, nil
	default:
		return cmd, ErrUnknownSubcommand
	}

	if len(fields) < 2 {
		return cmd, errors.New("slack: a dealership domain is required")
	}
	cmd.Domain = NormalizeDomain(fields[1])
	return cmd, nil
}

// NormalizeDomain strips schemes, "www." and paths, and unwraps Slack's
// <http://x|x> link markup.
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.ToLower(raw))
	d = strings.Trim(d, "<>")
	if i := strings.Index(d, "|"); i >= 0 {
		d = d[i+1:]
	}
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return d
}

// HelpText is returned for "help" and empty invocations.
const HelpText = "Usage: `/dealerai score <domain>` or `/dealerai sentinel <domain>`"
