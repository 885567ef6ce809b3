package harness

import (
	"context"
	"fmt"
	"sort"

	"github.com/distype/distype/internal/model"
	"github.com/distype/distype/internal/store"
)

// actionFunc performs one store operation. A returned store error becomes
// the completion case; argument errors abort the scenario.
type actionFunc func(ctx context.Context, st *store.Store, args actionArgs) (any, error)

// actions maps scenario action names to store operations.
var actions = map[string]actionFunc{
	"Chats.list": func(ctx context.Context, st *store.Store, _ actionArgs) (any, error) {
		return st.ListChats(ctx)
	},
	"Chats.get": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		id, err := a.required("id")
		if err != nil {
			return nil, err
		}
		return st.GetChat(ctx, id)
	},
	"Chats.create": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		name, err := a.optional("name")
		if err != nil {
			return nil, err
		}
		return st.CreateChat(ctx, name)
	},
	"Chats.setText": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		id, text, err := a.pair("id", "text")
		if err != nil {
			return nil, err
		}
		return nil, st.UpdateChatText(ctx, id, text)
	},
	"Chats.rename": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		id, name, err := a.pair("id", "name")
		if err != nil {
			return nil, err
		}
		return nil, st.RenameChat(ctx, id, name)
	},
	"Chats.delete": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		id, err := a.required("id")
		if err != nil {
			return nil, err
		}
		deleted, err := st.DeleteChat(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"deleted": deleted}, nil
	},

	"Categories.list": func(ctx context.Context, st *store.Store, _ actionArgs) (any, error) {
		return st.ListCategories(ctx)
	},
	"Categories.get": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		id, err := a.required("id")
		if err != nil {
			return nil, err
		}
		return st.GetCategory(ctx, id)
	},
	"Categories.create": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		name, err := a.required("name")
		if err != nil {
			return nil, err
		}
		id, err := a.optional("id")
		if err != nil {
			return nil, err
		}
		if id != "" {
			return st.CreateCategoryWithID(ctx, id, name)
		}
		return st.CreateCategory(ctx, name)
	},
	"Categories.rename": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		id, name, err := a.pair("id", "name")
		if err != nil {
			return nil, err
		}
		return nil, st.UpdateCategoryName(ctx, id, name)
	},
	"Categories.delete": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		id, err := a.required("id")
		if err != nil {
			return nil, err
		}
		return nil, st.DeleteCategory(ctx, id)
	},

	"Messages.list": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		categoryID, err := a.required("category_id")
		if err != nil {
			return nil, err
		}
		return st.ListMessages(ctx, categoryID)
	},
	"Messages.get": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		id, err := a.required("id")
		if err != nil {
			return nil, err
		}
		return st.GetMessage(ctx, id)
	},
	"Messages.append": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		categoryID, text, err := a.pair("category_id", "text")
		if err != nil {
			return nil, err
		}
		return st.AppendMessage(ctx, categoryID, text)
	},
	"Messages.setText": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		id, text, err := a.pair("id", "text")
		if err != nil {
			return nil, err
		}
		return nil, st.UpdateMessageText(ctx, id, text)
	},
	"Messages.delete": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		id, err := a.required("id")
		if err != nil {
			return nil, err
		}
		return nil, st.DeleteMessage(ctx, id)
	},

	"Settings.get": func(ctx context.Context, st *store.Store, _ actionArgs) (any, error) {
		return st.Settings(ctx)
	},
	"Settings.update": func(ctx context.Context, st *store.Store, a actionArgs) (any, error) {
		var u model.SettingsUpdate
		var err error
		if u.UseInternet, err = a.optionalBool("use_internet"); err != nil {
			return nil, err
		}
		if u.SpeakEveryWord, err = a.optionalBool("speak_every_word"); err != nil {
			return nil, err
		}
		if v, ok := a["voice_id"]; ok {
			s, isString := v.(string)
			if !isString {
				return nil, &argError{key: "voice_id", msg: fmt.Sprintf("must be a string, got %T", v)}
			}
			u.VoiceID = &s
		}
		return st.UpdateSettings(ctx, u)
	},
}

func knownAction(name string) bool {
	_, ok := actions[name]
	return ok
}

// ActionNames returns the supported action names, sorted.
func ActionNames() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// actionArgs are scenario arguments after alias substitution.
type actionArgs map[string]any

// argError reports a malformed scenario argument.
type argError struct {
	key string
	msg string
}

func (e *argError) Error() string {
	return fmt.Sprintf("arg %q %s", e.key, e.msg)
}

func (a actionArgs) required(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", &argError{key: key, msg: "is required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &argError{key: key, msg: fmt.Sprintf("must be a string, got %T", v)}
	}
	return s, nil
}

func (a actionArgs) optional(key string) (string, error) {
	if _, ok := a[key]; !ok {
		return "", nil
	}
	return a.required(key)
}

func (a actionArgs) pair(k1, k2 string) (string, string, error) {
	v1, err := a.required(k1)
	if err != nil {
		return "", "", err
	}
	v2, err := a.required(k2)
	if err != nil {
		return "", "", err
	}
	return v1, v2, nil
}

func (a actionArgs) optionalBool(key string) (*bool, error) {
	v, ok := a[key]
	if !ok {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, &argError{key: key, msg: fmt.Sprintf("must be a boolean, got %T", v)}
	}
	return &b, nil
}
