package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	include    string
	fontName   string
	iconPrefix string
	version    = "dev" // Set by build
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "svgiconfont",
	Short: "svgiconfont - Icon fonts from a directory of SVG files",
	Long: `svgiconfont turns a directory of SVG icons into an icon font (TTF, WOFF,
WOFF2) and a stylesheet importable as virtual:svg-iconfont.css.

The serve command runs a development server that regenerates the font and
reloads the page whenever an icon changes. The build command writes
content-hashed fonts and the stylesheet with resolved font URLs.`,
	Version: version,
	// Default to serve command when no subcommand is specified
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "svgiconfont.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&include, "include", "", "Directory containing the SVG icons")
	rootCmd.PersistentFlags().StringVar(&fontName, "name", "", "Font family name")
	rootCmd.PersistentFlags().StringVar(&iconPrefix, "icon-prefix", "", "CSS class prefix of the icons")
}
