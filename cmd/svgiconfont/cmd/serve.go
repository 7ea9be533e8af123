package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ideamans/svgiconfont/cmd/svgiconfont/cmd/app"
	"github.com/ideamans/svgiconfont/pkg/devserver"
)

var (
	host string
	port int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the development server",
	Long: `Start a development server for the icon font.

The server will:
- Generate the font when the stylesheet is first requested
- Serve the fonts at their placeholder URLs
- Watch the icon directory and regenerate on every change
- Reload connected pages after each regeneration
- Serve a preview of every icon at /, or the files under server.root`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&host, "host", "", "Server host address (default from config: localhost)")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Server port number (default from config: 5173)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, usedDefault, err := app.LoadConfig(cfgFile, app.Overrides{
		Include:    include,
		Name:       fontName,
		IconPrefix: iconPrefix,
		Host:       host,
		Port:       port,
	})
	if err != nil {
		return app.FormatConfigError(err)
	}

	logger, err := app.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	logger.Info("Starting svgiconfont", "version", version)
	if usedDefault {
		logger.Warn("Config file not found, using default configuration", "path", cfgFile)
	}

	plugin, closeConverter, err := app.NewPlugin(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeConverter() }()

	srv, err := devserver.New(devserver.Options{
		Server:  cfg.Server,
		Entries: cfg.Build.Entries,
		Title:   cfg.IconFont.Name,
	}, logger, plugin)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
