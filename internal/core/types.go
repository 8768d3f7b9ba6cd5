package core

import (
	"context"

	"github.com/joelklabo/codic-slack/internal/casing"
	"github.com/joelklabo/codic-slack/internal/codic"
	"github.com/joelklabo/codic-slack/internal/compose"
)

// Translator names a phrase (Codic).
type Translator interface {
	Translate(ctx context.Context, text string, c casing.Casing) (codic.Translation, error)
}

// Sink posts a message to a Slack URL.
type Sink interface {
	Deliver(ctx context.Context, msg compose.Message, target string) error
}

// Resolver looks up the registered webhook for a team. A miss is reported
// with ok=false, not an error.
type Resolver interface {
	Resolve(ctx context.Context, teamID string) (url string, ok bool, err error)
}

// Dispatcher schedules an accepted invocation to run after the slash
// command has been acknowledged.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv Invocation) error
}

// Invocation is one slash command as received from Slack.
type Invocation struct {
	ID          string        `json:"id"`
	Text        string        `json:"text"`
	Casing      casing.Casing `json:"casing"`
	Command     string        `json:"command,omitempty"`
	UserName    string        `json:"user_name,omitempty"`
	TeamID      string        `json:"team_id,omitempty"`
	ResponseURL string        `json:"response_url,omitempty"`
}
