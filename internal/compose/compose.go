// Package compose builds the Slack messages posted back to the channel.
package compose

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/joelklabo/codic-slack/internal/casing"
	"github.com/joelklabo/codic-slack/internal/codic"
	"github.com/joelklabo/codic-slack/internal/format"
)

const (
	// PrimaryColor marks the attachment holding Codic's top suggestion.
	PrimaryColor = "#36a64f"
	// ApologyText is replied when the command was invoked without text.
	ApologyText = "何も変換出来ない:thinking_face:"
)

// Message is the JSON body accepted by Slack response URLs and incoming
// webhooks.
type Message struct {
	ResponseType string             `json:"response_type,omitempty"`
	Text         string             `json:"text"`
	Attachments  []slack.Attachment `json:"attachments,omitempty"`
}

// Meta is what the composer needs to know about the invocation.
type Meta struct {
	Text     string
	Command  string
	UserName string
}

// Apology is the reply for an empty command.
func Apology() Message {
	return Message{Text: ApologyText}
}

// Result renders a Codic translation for the whole channel.
func Result(tr codic.Translation, words []format.Word, c casing.Casing, meta Meta) Message {
	source := tr.Text
	if source == "" {
		source = meta.Text
	}

	fields := make([]slack.AttachmentField, 0, len(words))
	for _, w := range words {
		fields = append(fields, slack.AttachmentField{Title: w.Text, Value: w.Candidates})
	}
	breakdown := slack.Attachment{Fields: fields}
	if meta.UserName != "" {
		breakdown.Footer = "requested by " + meta.UserName
	}

	return Message{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         headline(source, c, meta.Command),
		Attachments: []slack.Attachment{
			{
				Color:  PrimaryColor,
				Fields: []slack.AttachmentField{{Value: tr.TranslatedText}},
			},
			breakdown,
		},
	}
}

func headline(source string, c casing.Casing, command string) string {
	h := fmt.Sprintf("「%s」の命名候補\n\ncasing：%s", source, c.Label())
	if command != "" {
		h += fmt.Sprintf("\n`%s %s`", command, source)
	}
	return h
}
