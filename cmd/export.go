package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"watermarker/internal/processor"
	"watermarker/internal/template"
	"watermarker/internal/tui"
	"watermarker/internal/watermark"
)

var (
	exportOutputDir string
	exportFormat    string
	exportQuality   int
	exportNaming    string
	exportAffix     string
	exportRecursive bool
	exportWorkers   int
	exportTemplate  string
	exportFresh     bool
	exportQuiet     bool

	exportWatermark *watermarkFlags
	exportResize    *resizeFlags
)

var exportCmd = &cobra.Command{
	Use:   "export [flags] <path>...",
	Short: "Watermark images and write the results to an output folder",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if exportFresh && exportTemplate != "" {
			return fmt.Errorf("--fresh cannot be used with --template")
		}

		tpl, err := resolveTemplate(ctx, cmd, env.store, exportWatermark, exportTemplate, exportFresh)
		if err != nil {
			return err
		}
		format, err := watermark.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		naming, err := processor.ParseNaming(exportNaming, exportAffix)
		if err != nil {
			return err
		}
		quality := env.cfg.JPEGQuality
		if cmd.Flags().Changed("quality") {
			quality = exportQuality
		}
		workers := env.cfg.Workers
		if cmd.Flags().Changed("workers") {
			workers = exportWorkers
		}

		opts := processor.Options{
			Request: tpl.Apply(watermark.RenderRequest{Resize: exportResize.policy(cmd)}),
			Export: processor.ExportSpec{
				Format:    format,
				Quality:   quality,
				Naming:    naming,
				OutputDir: exportOutputDir,
			},
			Recursive:  exportRecursive,
			Workers:    workers,
			Compositor: env.comp,
			Logger:     env.log,
		}
		if err := opts.Validate(); err != nil {
			return err
		}

		summary, results, err := runExport(ctx, args, opts, !exportQuiet)
		return reportExport(ctx, os.Stdout, env, tpl, summary, results, err)
	},
}

// reportExport prints the batch summary and records the settings as last used
// when the run was not cancelled.
func reportExport(ctx context.Context, w io.Writer, a *app, tpl template.Template, summary processor.Summary, results []processor.Result, runErr error) error {
	cancelled := processor.IsCancelled(runErr)
	if runErr != nil && !cancelled {
		return runErr
	}

	if !cancelled {
		if err := a.store.SaveLastUsed(ctx, tpl); err != nil {
			a.log.WithError(err).Warn("Could not record last-used settings")
		}
	}

	rows := []tui.SummaryRow{
		{Label: "Exported", Value: fmt.Sprintf("%d/%d", summary.Succeeded, summary.Total)},
		{Label: "Failed", Value: fmt.Sprintf("%d", summary.Failed)},
		{Label: "Skipped (unsupported)", Value: fmt.Sprintf("%d", summary.Skipped)},
		{Label: "Cancelled", Value: fmt.Sprintf("%d", summary.Cancelled)},
		{Label: "Written", Value: tui.FormatBytes(summary.BytesWritten)},
	}
	fmt.Fprintln(w, tui.RenderSummary(rows))

	var failures []tui.SummaryRow
	for _, res := range results {
		if res.Err != nil && !processor.IsCancelled(res.Err) {
			failures = append(failures, tui.SummaryRow{Label: res.Display, Value: res.Err.Error()})
		}
	}
	if len(failures) > 0 {
		fmt.Fprintln(w, tui.RenderFailures(failures))
	}

	if cancelled {
		return fmt.Errorf("export cancelled after %d of %d files", summary.Succeeded, summary.Total)
	}

	outPath := exportOutputDir
	if abs, absErr := filepath.Abs(exportOutputDir); absErr == nil {
		outPath = abs
	}
	fmt.Fprintln(w, tui.RenderOK("Exported files written to: "+outPath))

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
	}
	return nil
}

// runExport drives processor.Run, with the progress view when interactive.
// Quitting the view cancels files not yet started.
func runExport(ctx context.Context, inputs []string, opts processor.Options, interactive bool) (processor.Summary, []processor.Result, error) {
	if !interactive {
		return processor.Run(ctx, inputs, opts, nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan processor.ProgressUpdate, 64)
	program := tea.NewProgram(tui.NewModel(updates))

	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		final, err := program.Run()
		if err != nil {
			opts.Logger.WithError(err).Warn("Progress view stopped")
		}
		if m, ok := final.(tui.Model); ok && m.Cancelled() {
			cancel()
		}
		for range updates {
		}
	}()

	summary, results, err := processor.Run(ctx, inputs, opts, updates)
	close(updates)
	<-uiDone
	return summary, results, err
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportOutputDir, "output", "o", "watermarked", "destination folder; must differ from the source folders")
	f.StringVarP(&exportFormat, "format", "f", "png", "output format: png or jpeg")
	f.IntVarP(&exportQuality, "quality", "q", 95, "JPEG quality 0-100 (default from config)")
	f.StringVar(&exportNaming, "naming", "original", "output naming: original, prefix or suffix")
	f.StringVar(&exportAffix, "affix", "", "text added by --naming prefix or suffix")
	f.BoolVarP(&exportRecursive, "recursive", "r", false, "descend into subdirectories")
	f.IntVarP(&exportWorkers, "workers", "w", 0, "parallel workers (default from config)")
	f.StringVarP(&exportTemplate, "template", "t", "", "start from this saved template instead of the last-used settings")
	f.BoolVar(&exportFresh, "fresh", false, "start from default settings instead of the last-used settings")
	f.BoolVar(&exportQuiet, "quiet", false, "no progress view")

	exportWatermark = addWatermarkFlags(exportCmd)
	exportResize = addResizeFlags(exportCmd)

	rootCmd.AddCommand(exportCmd)
}
