// Package config loads distype configuration.
//
// # Configuration File
//
// The CLI reads the file named by --config, then the DISTYPE_CONFIG
// environment variable. Without either, Default is used. YAML and TOML
// are both accepted; the format is chosen by file extension.
//
// # Environment Variable Expansion
//
// Values can reference environment variables:
//
//	database:
//	  path: "${HOME}/.local/share/distype/distype.db"
//
// Unset variables expand to the empty string.
//
// # Schema
//
// The parsed document is unified with the #Config definition in
// schema.cue, which supplies defaults and rejects unknown keys and
// out-of-range values:
//
//	database:
//	  path: "distype.db"
//	  driver: "sqlite3"        # sqlite3 (cgo), sqlite (pure Go)
//	store:
//	  chat_prefix: "ЧАТ"
//	  min_chat_count: 3
//	  uncategorized_id: "Без категории"
//	  uncategorized_name: "Без категории"
//	  protect_uncategorized: false
//	settings:
//	  use_internet: false
//	  speak_every_word: false
//	  voice_id: ""
//	logging:
//	  level: "info"            # debug, info, warn, error
//	  format: "text"           # text, json
package config
