package model

// Defaults applied when the configuration does not override them.
const (
	// DefaultChatPrefix is prepended to the ordinal of synthesized chat names.
	DefaultChatPrefix = "ЧАТ"

	// DefaultMinChatCount is the number of chats a bootstrapped store always holds.
	// Chats at name-sorted positions below this count cannot be deleted.
	DefaultMinChatCount = 3

	// DefaultUncategorizedID is the reserved identifier of the distinguished category.
	DefaultUncategorizedID = "Без категории"

	// DefaultUncategorizedName is the display name given to the distinguished
	// category when bootstrap creates it.
	DefaultUncategorizedName = "Без категории"
)

// Chat is a named text buffer.
type Chat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// Category owns an ordered list of messages.
// Messages is always non-nil for categories returned by the store.
type Category struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
}

// Message is a text entry owned by a single category.
type Message struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Text       string `json:"text"`
}

// Settings is the singleton preferences record.
type Settings struct {
	UseInternet    bool   `json:"use_internet"`
	SpeakEveryWord bool   `json:"speak_every_word"`
	VoiceID        string `json:"voice_id"`
}

// SettingsUpdate is a partial update of Settings. Nil fields are left unchanged.
type SettingsUpdate struct {
	UseInternet    *bool
	SpeakEveryWord *bool
	VoiceID        *string
}

// Empty reports whether the update carries no fields.
func (u SettingsUpdate) Empty() bool {
	return u.UseInternet == nil && u.SpeakEveryWord == nil && u.VoiceID == nil
}

// Apply returns s with the non-nil fields of u applied.
func (u SettingsUpdate) Apply(s Settings) Settings {
	if u.UseInternet != nil {
		s.UseInternet = *u.UseInternet
	}
	if u.SpeakEveryWord != nil {
		s.SpeakEveryWord = *u.SpeakEveryWord
	}
	if u.VoiceID != nil {
		s.VoiceID = *u.VoiceID
	}
	return s
}

// Snapshot is a point-in-time export of the whole store.
// Chats are in listing order and categories in view order.
type Snapshot struct {
	SchemaVersion int        `json:"schema_version"`
	Chats         []Chat     `json:"chats"`
	Categories    []Category `json:"categories"`
	Settings      Settings   `json:"settings"`
}
