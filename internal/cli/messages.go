package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/distype/distype/internal/model"
	"github.com/distype/distype/internal/store"
)

// NewMessagesCommand creates the messages command group.
func NewMessagesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "List, append, edit and delete category messages",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <category-id>",
		Short: "List the messages of a category in append order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				messages, err := st.ListMessages(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Render(messages, func(w io.Writer) error {
					return messageTable(w, messages)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one message with its full text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				msg, err := st.GetMessage(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Render(msg, func(w io.Writer) error {
					if err := messageTable(w, []model.Message{msg}); err != nil {
						return err
					}
					_, err := io.WriteString(w, "\n"+msg.Text+"\n")
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "append <category-id> <text>",
		Short: "Append a message to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				msg, err := st.AppendMessage(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return out.Render(msg, func(w io.Writer) error {
					return printOK(w, "Appended message %s to %s", msg.ID, msg.CategoryID)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-text <id> <text>",
		Short: "Replace the text of a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				if err := st.UpdateMessageText(ctx, args[0], args[1]); err != nil {
					return err
				}
				return out.Render(UpdateResult{ID: args[0]}, func(w io.Writer) error {
					return printOK(w, "Updated message %s", args[0])
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				if err := st.DeleteMessage(ctx, args[0]); err != nil {
					return err
				}
				return out.Render(DeleteResult{ID: args[0], Deleted: true}, func(w io.Writer) error {
					return printOK(w, "Deleted message %s", args[0])
				})
			})
		},
	})

	return cmd
}

func messageTable(w io.Writer, messages []model.Message) error {
	rows := make([][]string, len(messages))
	for i, m := range messages {
		rows[i] = []string{m.ID, m.CategoryID, preview(m.Text)}
	}
	return table(w, []string{"ID", "CATEGORY", "TEXT"}, rows, "No messages.")
}
