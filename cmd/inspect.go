package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"watermarker/internal/exifdate"
	"watermarker/internal/tui"
	"watermarker/internal/watermark"
	"watermarker/pkg/imgutil"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <path>...",
	Short: "Show format, size, colour mode and capture date of images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for i, path := range args {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			fmt.Fprintln(os.Stdout, inspectFileStyle.Render(path))

			rows, err := inspectFile(path)
			if err != nil {
				failed++
				env.log.WithError(err).WithField("path", path).Debug("Inspect failed")
				fmt.Fprintf(os.Stdout, "  %s %s\n", inspectBulletStyle.Render("-"), inspectErrStyle.Render(err.Error()))
				continue
			}
			for _, row := range rows {
				fmt.Fprintf(os.Stdout, "  %s %s\n",
					inspectLabelStyle.Render(fmt.Sprintf("%-10s", row.Label+":")),
					inspectValueStyle.Render(row.Value),
				)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be read", failed, len(args))
		}
		return nil
	},
}

func inspectFile(path string) ([]tui.SummaryRow, error) {
	kind, err := imgutil.CheckFile(path)
	if err != nil {
		return nil, err
	}
	img, err := watermark.LoadImage(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	date, source := exifdate.Resolve(path)

	return []tui.SummaryRow{
		{Label: "Format", Value: kind.String()},
		{Label: "Size", Value: fmt.Sprintf("%dx%d", b.Dx(), b.Dy())},
		{Label: "Mode", Value: watermark.ModeOf(img).String()},
		{Label: "Date", Value: fmt.Sprintf("%s (%s)", date, source)},
	}, nil
}

var (
	inspectFileStyle   = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	inspectLabelStyle  = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	inspectValueStyle  = lipgloss.NewStyle().Foreground(tui.ColorInk)
	inspectErrStyle    = lipgloss.NewStyle().Foreground(tui.ColorWarn)
	inspectBulletStyle = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}
