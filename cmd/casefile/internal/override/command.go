package override

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"casefile/cmd/casefile/internal"
	"casefile/internal/admin"
)

type options struct {
	admin     string
	token     string
	session   string
	turn      int
	text      string
	image     string
	voice     string
	music     string
	imageOnly bool
}

func NewOverrideCommand(globals *internal.GlobalOptions) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "override",
		Short: "Replace the text or media of a narrated turn",
		Args:  cobra.NoArgs,
		Example: `  casefile override --session demo-1 --turn 3 --image /assets/alley.png
  casefile override --session demo-1 --turn 3 --text "The rain stopped." --token s3cret
  casefile override --session demo-1 --turn 3 --image /assets/alley.png --image-only`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := globals.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("admin") {
				cfg.AdminBase = opts.admin
			}
			if cmd.Flags().Changed("token") {
				cfg.AdminToken = opts.token
			}
			cfg.Normalize()
			if !cmd.Flags().Changed("turn") {
				return fmt.Errorf("--turn: %w", admin.ErrMissingField)
			}
			client := admin.NewClient(cfg.AdminBase, cfg.AdminToken, nil)

			if opts.imageOnly {
				if strings.TrimSpace(opts.image) == "" {
					return fmt.Errorf("--image-only needs --image: %w", admin.ErrMissingField)
				}
				if err := client.ImageUpdate(cmd.Context(), opts.session, opts.turn, opts.image); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "image pushed to %s turn %d\n", opts.session, opts.turn)
				return nil
			}

			req := admin.OverrideRequest{
				SessionID:  opts.session,
				Turn:       opts.turn,
				Text:       opts.text,
				Image:      opts.image,
				VoiceAudio: opts.voice,
				Music:      opts.music,
			}
			if req.Text == "" && req.Image == "" && req.VoiceAudio == "" && req.Music == "" {
				return fmt.Errorf("nothing to override: set --text, --image, --voice or --music")
			}
			if err := client.Override(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "override applied to %s turn %d\n", opts.session, opts.turn)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.admin, "admin", "", "orchestrator base URL")
	cmd.Flags().StringVar(&opts.token, "token", "", "admin token sent as "+admin.TokenHeader)
	cmd.Flags().StringVar(&opts.session, "session", "", "target session id")
	cmd.Flags().IntVar(&opts.turn, "turn", 0, "target turn id")
	cmd.Flags().StringVar(&opts.text, "text", "", "replacement narration")
	cmd.Flags().StringVar(&opts.image, "image", "", "replacement scene image")
	cmd.Flags().StringVar(&opts.voice, "voice", "", "replacement voice track")
	cmd.Flags().StringVar(&opts.music, "music", "", "replacement music track")
	cmd.Flags().BoolVar(&opts.imageOnly, "image-only", false, "push an image_update instead of a full override")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
