package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/distype/distype/internal/model"
	"github.com/distype/distype/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// EnvPath names the environment variable consulted for a config file
// when no path is given on the command line.
const EnvPath = "DISTYPE_CONFIG"

// Config is the decoded configuration. Field tags match schema.cue.
type Config struct {
	Database DatabaseConfig `json:"database"`
	Store    StoreConfig    `json:"store"`
	Settings SettingsConfig `json:"settings"`
	Logging  LoggingConfig  `json:"logging"`
}

// DatabaseConfig selects the database file and driver.
type DatabaseConfig struct {
	Path   string `json:"path"`
	Driver string `json:"driver"`
}

// StoreConfig holds the store's seeding and protection parameters.
type StoreConfig struct {
	ChatPrefix           string `json:"chat_prefix"`
	MinChatCount         int    `json:"min_chat_count"`
	UncategorizedID      string `json:"uncategorized_id"`
	UncategorizedName    string `json:"uncategorized_name"`
	ProtectUncategorized bool   `json:"protect_uncategorized"`
}

// SettingsConfig seeds the settings record the first time it is created.
type SettingsConfig struct {
	UseInternet    bool   `json:"use_internet"`
	SpeakEveryWord bool   `json:"speak_every_word"`
	VoiceID        string `json:"voice_id"`
}

// LoggingConfig configures the CLI's slog handler.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns the configuration an empty file produces.
func Default() *Config {
	cfg, err := decode(map[string]any{})
	if err != nil {
		// schema.cue is embedded; a failure here is a build defect.
		panic(fmt.Sprintf("config: default configuration invalid: %v", err))
	}
	return cfg
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file, expands ${VAR}
// references, and validates the result against the schema. Missing keys
// take their schema defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	doc, err := parse(filepath.Ext(path), []byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg, err := decode(doc)
	if err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// parse decodes raw file content into a generic document by extension.
func parse(ext string, data []byte) (map[string]any, error) {
	doc := map[string]any{}

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q: use .yaml, .yml or .toml", ext)
	}

	// An empty YAML document decodes to a nil map.
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// decode unifies doc with #Config, which fills defaults and rejects
// unknown keys and out-of-range values, then decodes the result.
func decode(doc map[string]any) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	data := ctx.Encode(doc)
	if err := data.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := def.Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	return &cfg, nil
}

// formatCUEError flattens a CUE error list into one line per problem.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if path := strings.Join(e.Path(), "."); path != "" && !strings.Contains(msg, path) {
			msg = path + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks constraints the schema cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Store.UncategorizedID != strings.TrimSpace(c.Store.UncategorizedID) {
		return fmt.Errorf("store.uncategorized_id must not have surrounding whitespace")
	}
	return nil
}

// StoreOptions converts the configuration into store.Options.
func (c *Config) StoreOptions(logger *slog.Logger) store.Options {
	return store.Options{
		Driver:               c.Database.Driver,
		ChatPrefix:           c.Store.ChatPrefix,
		MinChatCount:         c.Store.MinChatCount,
		UncategorizedID:      c.Store.UncategorizedID,
		UncategorizedName:    c.Store.UncategorizedName,
		ProtectUncategorized: c.Store.ProtectUncategorized,
		DefaultSettings: model.Settings{
			UseInternet:    c.Settings.UseInternet,
			SpeakEveryWord: c.Settings.SpeakEveryWord,
			VoiceID:        c.Settings.VoiceID,
		},
		Logger: logger,
	}
}

// LogLevel returns the slog level named by logging.level.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
