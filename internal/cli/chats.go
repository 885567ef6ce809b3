package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/distype/distype/internal/model"
	"github.com/distype/distype/internal/store"
)

// DeleteResult reports the outcome of a delete that may be refused.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// UpdateResult reports the record a set-text or rename command changed.
type UpdateResult struct {
	ID string `json:"id"`
}

// NewChatsCommand creates the chats command group.
func NewChatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List, create, edit and delete chats",
		Long: `Manage chats.

Chats are listed by name in byte order. The first chats of that listing
(three by default) are protected: deleting one leaves it in place.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List chats sorted by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				chats, err := st.ListChats(ctx)
				if err != nil {
					return err
				}
				return out.Render(chats, func(w io.Writer) error {
					return chatTable(w, chats)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one chat with its full text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				chat, err := st.GetChat(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Render(chat, func(w io.Writer) error {
					if err := chatTable(w, []model.Chat{chat}); err != nil {
						return err
					}
					_, err := io.WriteString(w, "\n"+chat.Text+"\n")
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create [name]",
		Short: "Create a chat; without a name one is synthesized",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				chat, err := st.CreateChat(ctx, name)
				if err != nil {
					return err
				}
				return out.Render(chat, func(w io.Writer) error {
					return printOK(w, "Created chat %s (%s)", chat.Name, chat.ID)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-text <id> <text>",
		Short: "Replace the text of a chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				if err := st.UpdateChatText(ctx, args[0], args[1]); err != nil {
					return err
				}
				return out.Render(UpdateResult{ID: args[0]}, func(w io.Writer) error {
					return printOK(w, "Updated chat %s", args[0])
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				if err := st.RenameChat(ctx, args[0], args[1]); err != nil {
					return err
				}
				return out.Render(UpdateResult{ID: args[0]}, func(w io.Writer) error {
					return printOK(w, "Renamed chat %s", args[0])
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a chat unless it is protected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				deleted, err := st.DeleteChat(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Render(DeleteResult{ID: args[0], Deleted: deleted}, func(w io.Writer) error {
					if !deleted {
						return printWarn(w, "Chat %s is protected and was not deleted", args[0])
					}
					return printOK(w, "Deleted chat %s", args[0])
				})
			})
		},
	})

	return cmd
}

func chatTable(w io.Writer, chats []model.Chat) error {
	rows := make([][]string, len(chats))
	for i, c := range chats {
		rows[i] = []string{c.ID, c.Name, preview(c.Text)}
	}
	return table(w, []string{"ID", "NAME", "TEXT"}, rows, "No chats.")
}
