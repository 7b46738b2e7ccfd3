package cli

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/tspstudio/pkg/channel"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

// newCommand creates the new command, which starts a study from an image.
func (c *CLI) newCommand() *cobra.Command {
	var (
		output  string
		modeStr string
	)
	settings := studio.DefaultSettings()

	cmd := &cobra.Command{
		Use:   "new [image]",
		Short: "Create a study from an image",
		Long: `Create a study from an image.

The image is split into channels by mode: gray uses one luminance channel,
rgb three additive channels, cmyk four subtractive ones. The study records
the image and settings; run 'stipple' next to sample points.

PNG, JPEG, GIF, BMP, TIFF and WebP inputs are accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := channel.ParseMode(modeStr)
			if err != nil {
				return err
			}
			if output == "" {
				output = studyPath(args[0])
			}
			return c.runNew(cmd.Context(), args[0], output, mode, settings)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "study file (default: <image>.study.json)")
	cmd.Flags().StringVarP(&modeStr, "mode", "m", channel.Grayscale.String(), "color mode: gray, rgb, cmyk")
	addSettingsFlags(cmd, &settings)

	return cmd
}

// addSettingsFlags registers the study settings shared by new and run.
func addSettingsFlags(cmd *cobra.Command, s *studio.Settings) {
	cmd.Flags().IntVarP(&s.Points, "points", "n", s.Points, "points per channel")
	cmd.Flags().Float64Var(&s.LineWidth, "line-width", s.LineWidth, "maximum stroke width in pixels")
	cmd.Flags().IntVar(&s.WhiteThreshold, "white-threshold", s.WhiteThreshold, "drop points brighter than this (0-255, 255 keeps all)")
	cmd.Flags().BoolVar(&s.Invert, "invert", s.Invert, "invert the channels before stippling")
	cmd.Flags().StringVar(&s.Foreground, "fg", s.Foreground, "line color (gray mode)")
	cmd.Flags().StringVar(&s.Background, "bg", s.Background, "background color (gray mode)")
}

func (c *CLI) runNew(ctx context.Context, input, output string, mode channel.Mode, settings studio.Settings) error {
	img, err := openImage(input)
	if err != nil {
		return err
	}
	s, err := studio.New(img, mode, settings)
	if err != nil {
		return err
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := studio.Save(ctx, st, output, s); err != nil {
		return err
	}

	w, h := s.Size()
	printSuccess("Created %s study", mode)
	printKeyValue("Image", fmt.Sprintf("%dx%d", w, h))
	printKeyValue("Channels", fmt.Sprintf("%d", len(s.Channels)))
	printKeyValue("Points", fmt.Sprintf("%d per channel", settings.Points))
	printFile(output)
	printNewline()
	printNextStep("Sample points", "tspstudio stipple "+output)
	return nil
}

// openImage decodes an image file, applying any EXIF orientation.
func openImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	return img, nil
}
