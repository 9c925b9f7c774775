package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"watermarker/internal/config"
	"watermarker/internal/template"
	"watermarker/internal/watermark"
)

// app is built once per invocation by the root command's pre-run hook.
type app struct {
	cfg    config.Config
	log    *logrus.Logger
	closer io.Closer
	comp   *watermark.Compositor
	store  template.Store
}

var (
	configPath string
	env        *app
)

var rootCmd = &cobra.Command{
	Use:           "watermarker",
	Short:         "watermarker - stamp text or logo watermarks onto batches of images",
	Long:          "watermarker resizes images, composites a text or image watermark over them and exports PNG or JPEG copies. Watermark settings can be saved as reusable templates.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(configPath)
		if err != nil {
			return err
		}
		env = a
		return nil
	},
}

func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, closer, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	store, err := template.NewFileStore(cfg.TemplateDir, log)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	fonts := watermark.NewFontLoader(cfg.FontDirs, log)
	return &app{
		cfg:    cfg,
		log:    log,
		closer: closer,
		comp:   watermark.NewCompositor(fonts, log),
		store:  store,
	}, nil
}

func Execute() {
	if err := execute(nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs the command tree and releases the app afterwards, also when
// the command failed. nil args means os.Args.
func execute(args []string) error {
	if args != nil {
		rootCmd.SetArgs(args)
	}
	err := rootCmd.Execute()
	if env != nil {
		if err != nil {
			env.log.WithError(err).Error("Command failed")
		}
		_ = env.closer.Close()
		env = nil
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file (YAML)")
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
