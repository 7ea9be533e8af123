package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ideamans/svgiconfont/cmd/svgiconfont/cmd/app"
	"github.com/ideamans/svgiconfont/pkg/bundler"
)

var outDir string

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Write the icon font and stylesheet for production",
	Long: `Generate the icon font once and write the production output.

The build will:
- Load every configured entry (the icon stylesheet by default)
- Emit the fonts as content-hashed assets
- Rewrite the font URLs in every stylesheet to the emitted file names
- Write the assets and manifest.json to the output directory`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Output directory (default from config: dist)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, usedDefault, err := app.LoadConfig(cfgFile, app.Overrides{
		Include:    include,
		Name:       fontName,
		IconPrefix: iconPrefix,
		OutDir:     outDir,
	})
	if err != nil {
		return app.FormatConfigError(err)
	}

	logger, err := app.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	if usedDefault {
		logger.Warn("Config file not found, using default configuration", "path", cfgFile)
	}

	plugin, closeConverter, err := app.NewPlugin(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeConverter() }()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = bundler.New(bundler.Options{Build: cfg.Build, Root: wd}, logger, plugin).Build(ctx)
	return err
}
