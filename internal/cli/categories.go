package cli

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/distype/distype/internal/model"
	"github.com/distype/distype/internal/store"
)

// NewCategoriesCommand creates the categories command group.
func NewCategoriesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List, create, rename and delete message categories",
		Long: `Manage message categories.

Categories are listed in creation order with the uncategorized category
first. Deleting a category deletes all of its messages.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories in view order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				categories, err := st.ListCategories(ctx)
				if err != nil {
					return err
				}
				return out.Render(categories, func(w io.Writer) error {
					return categoryTable(w, categories)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a category and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				category, err := st.GetCategory(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Render(category, func(w io.Writer) error {
					if err := categoryTable(w, []model.Category{category}); err != nil {
						return err
					}
					io.WriteString(w, "\n")
					return messageTable(w, category.Messages)
				})
			})
		},
	})

	var id string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				var (
					category model.Category
					err      error
				)
				if id != "" {
					category, err = st.CreateCategoryWithID(ctx, id, args[0])
				} else {
					category, err = st.CreateCategory(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return out.Render(category, func(w io.Writer) error {
					return printOK(w, "Created category %s (%s)", category.Name, category.ID)
				})
			})
		},
	}
	create.Flags().StringVar(&id, "id", "", "caller-assigned category id (default generated)")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				if err := st.UpdateCategoryName(ctx, args[0], args[1]); err != nil {
					return err
				}
				return out.Render(UpdateResult{ID: args[0]}, func(w io.Writer) error {
					return printOK(w, "Renamed category %s", args[0])
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category and all of its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				if err := st.DeleteCategory(ctx, args[0]); err != nil {
					return err
				}
				return out.Render(DeleteResult{ID: args[0], Deleted: true}, func(w io.Writer) error {
					return printOK(w, "Deleted category %s", args[0])
				})
			})
		},
	})

	return cmd
}

func categoryTable(w io.Writer, categories []model.Category) error {
	rows := make([][]string, len(categories))
	for i, c := range categories {
		rows[i] = []string{c.ID, c.Name, strconv.Itoa(len(c.Messages))}
	}
	return table(w, []string{"ID", "NAME", "MESSAGES"}, rows, "No categories.")
}
