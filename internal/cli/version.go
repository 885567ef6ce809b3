package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/distype/distype/internal/store"
)

// Version is the build version, set with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// VersionInfo is the output of the version command.
type VersionInfo struct {
	Version       string `json:"version"`
	SchemaVersion int    `json:"schema_version"`
	Path          string `json:"path"`
	Driver        string `json:"driver"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version and the database schema version",
		Long: `Print the build version and the database schema version.

Opening the database bumps its schema version, so the reported version
includes this invocation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				info := VersionInfo{
					Version:       Version,
					SchemaVersion: st.SchemaVersion(),
					Path:          rootOpts.cfg.Database.Path,
					Driver:        rootOpts.cfg.Database.Driver,
				}
				return out.Render(info, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "distype %s\nschema version %d (%s, %s)\n",
						info.Version, info.SchemaVersion, info.Path, info.Driver)
					return err
				})
			})
		},
	}
}
