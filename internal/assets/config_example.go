package assets

import _ "embed"

// ConfigExample holds a fully commented config.yaml.
//
//go:embed config_example_embed.yaml
var ConfigExample []byte
