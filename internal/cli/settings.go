package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/distype/distype/internal/model"
	"github.com/distype/distype/internal/store"
)

// SettingsSetOptions holds flags for the settings set command.
type SettingsSetOptions struct {
	*RootOptions
	UseInternet    bool
	SpeakEveryWord bool
	VoiceID        string
}

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change application settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				settings, err := st.Settings(ctx)
				if err != nil {
					return err
				}
				return out.Render(settings, func(w io.Writer) error {
					return printSettings(w, settings)
				})
			})
		},
	})

	cmd.AddCommand(newSettingsSetCommand(&SettingsSetOptions{RootOptions: rootOpts}))

	return cmd
}

func newSettingsSetCommand(opts *SettingsSetOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Long: `Change one or more settings. Only the flags given are changed.

Examples:
  distype settings set --use-internet
  distype settings set --speak-every-word=false --voice ru-RU-Milena`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u model.SettingsUpdate
			if cmd.Flags().Changed("use-internet") {
				u.UseInternet = &opts.UseInternet
			}
			if cmd.Flags().Changed("speak-every-word") {
				u.SpeakEveryWord = &opts.SpeakEveryWord
			}
			if cmd.Flags().Changed("voice") {
				u.VoiceID = &opts.VoiceID
			}
			if u.Empty() {
				return NewExitError(ExitCommandError,
					"nothing to change: pass --use-internet, --speak-every-word or --voice")
			}

			return opts.withStore(cmd, func(ctx context.Context, st *store.Store, out *OutputFormatter) error {
				settings, err := st.UpdateSettings(ctx, u)
				if err != nil {
					return err
				}
				return out.Render(settings, func(w io.Writer) error {
					if err := printOK(w, "Settings updated"); err != nil {
						return err
					}
					return printSettings(w, settings)
				})
			})
		},
	}

	cmd.Flags().BoolVar(&opts.UseInternet, "use-internet", false, "use network speech synthesis")
	cmd.Flags().BoolVar(&opts.SpeakEveryWord, "speak-every-word", false, "speak each word as it is typed")
	cmd.Flags().StringVar(&opts.VoiceID, "voice", "", "voice identifier")

	return cmd
}

func printSettings(w io.Writer, s model.Settings) error {
	voice := s.VoiceID
	if voice == "" {
		voice = dim.Sprint("(default)")
	}
	_, err := fmt.Fprintf(w, "use_internet:      %t\nspeak_every_word:  %t\nvoice_id:          %s\n",
		s.UseInternet, s.SpeakEveryWord, voice)
	return err
}
