// Command apkfetch locates and retrieves APK artifacts: `serve` runs
// the HTTP resolution service, `get` resolves and downloads a single
// package from the terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/apkfetch/apkfetch/internal/buildinfo"
	"github.com/apkfetch/apkfetch/internal/log"
)

var (
	flagQuiet bool
	flagDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "apkfetch",
	Short: "Locate and retrieve APK artifacts from public providers",
	Long: `apkfetch races independent content providers to find a downloadable
APK for a package, then follows the chain of landing pages to the
artifact itself, streaming the bytes without buffering.

The serve subcommand exposes the pipeline over HTTP; get drives it
from the terminal for a single package.`,
	Version: buildinfo.Version(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		switch {
		case flagQuiet:
			level = slog.LevelError
		case flagDebug:
			level = slog.LevelDebug
		}
		log.SetDefault(log.NewText(os.Stderr, level))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "errors only")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "per-hop and per-probe detail")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
