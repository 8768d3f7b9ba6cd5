package presets

import _ "embed"

//go:embed data/local.yaml
var Local []byte

//go:embed data/slack-app.yaml
var SlackApp []byte

//go:embed data/legacy-webhook.yaml
var LegacyWebhook []byte
