package gallery

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"casefile/cmd/casefile/internal"
	"casefile/internal/assets"
)

type options struct {
	vision     string
	collection string
	asJSON     bool
}

func NewGalleryCommand(globals *internal.GlobalOptions) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "List the images published by the asset service",
		Args:  cobra.NoArgs,
		Example: `  casefile gallery
  casefile gallery --collection case_zero
  casefile gallery --json --vision http://localhost:8004`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := globals.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("vision") {
				cfg.VisionBase = opts.vision
			}
			cfg.Normalize()
			client := assets.NewClient(cfg.VisionBase, nil)

			var g assets.Gallery
			switch opts.collection {
			case "":
				g, err = client.Gallery(cmd.Context())
			case assets.CollectionGenerated:
				g.Generated, err = client.List(cmd.Context(), opts.collection)
			case assets.CollectionCaseZero:
				g.CaseZero, err = client.List(cmd.Context(), opts.collection)
			default:
				return fmt.Errorf("unknown collection %q (want %s or %s)", opts.collection, assets.CollectionGenerated, assets.CollectionCaseZero)
			}
			if err != nil {
				return err
			}
			return printGallery(cmd.OutOrStdout(), g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.vision, "vision", "", "asset service base URL")
	cmd.Flags().StringVar(&opts.collection, "collection", "", "only list generated or case_zero")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")

	return cmd
}

func printGallery(w io.Writer, g assets.Gallery, opts options) error {
	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string][]string{
			assets.CollectionGenerated: g.Generated,
			assets.CollectionCaseZero:  g.CaseZero,
		})
	}
	section := func(name string, images []string) {
		if opts.collection != "" && opts.collection != name {
			return
		}
		fmt.Fprintf(w, "%s (%d)\n", name, len(images))
		for _, img := range images {
			fmt.Fprintf(w, "  %s\n", img)
		}
	}
	section(assets.CollectionGenerated, g.Generated)
	section(assets.CollectionCaseZero, g.CaseZero)
	return nil
}
