package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/distype/distype/internal/digest"
	"github.com/distype/distype/internal/store"
)

// ExportResult is reported when the snapshot is written to a file.
type ExportResult struct {
	Path          string `json:"path"`
	SchemaVersion int    `json:"schema_version"`
	Chats         int    `json:"chats"`
	Categories    int    `json:"categories"`
	Messages      int    `json:"messages"`
	Digest        string `json:"digest"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the whole store as JSON",
		Long: `Export a snapshot of the store: schema version, chats in listing order,
categories in view order with their messages, and settings.

With -o, the report includes a content digest of the snapshot. The digest
ignores the schema version, so it only changes when the data does.

Examples:
  distype export
  distype export -o backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				snap, err := st.Snapshot(ctx)
				if err != nil {
					return err
				}

				if output == "" {
					return out.Render(snap, func(w io.Writer) error {
						return writeIndentedJSON(w, snap)
					})
				}

				f, err := os.Create(output)
				if err != nil {
					return WrapExitError(ExitCommandError, "creating export file", err)
				}
				if err := writeIndentedJSON(f, snap); err != nil {
					f.Close()
					return WrapExitError(ExitCommandError, "writing export file", err)
				}
				if err := f.Close(); err != nil {
					return WrapExitError(ExitCommandError, "writing export file", err)
				}

				res := ExportResult{
					Path:          output,
					SchemaVersion: snap.SchemaVersion,
					Chats:         len(snap.Chats),
					Categories:    len(snap.Categories),
				}
				for _, c := range snap.Categories {
					res.Messages += len(c.Messages)
				}
				if res.Digest, err = digest.Snapshot(snap); err != nil {
					return err
				}
				return out.Render(res, func(w io.Writer) error {
					if err := printOK(w, "Exported %d chats, %d categories and %d messages to %s",
						res.Chats, res.Categories, res.Messages, res.Path); err != nil {
						return err
					}
					_, err := fmt.Fprintf(w, "  %s\n", dim.Sprint(res.Digest))
					return err
				})
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the snapshot to a file instead of stdout")

	return cmd
}

func writeIndentedJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
