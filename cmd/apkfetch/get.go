package main

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/apkfetch/apkfetch/internal/hop"
	"github.com/apkfetch/apkfetch/internal/httputil"
	"github.com/apkfetch/apkfetch/internal/log"
	"github.com/apkfetch/apkfetch/internal/playstore"
	"github.com/apkfetch/apkfetch/internal/provider"
	"github.com/apkfetch/apkfetch/internal/resolve"
)

var flagOutput string

var getCmd = &cobra.Command{
	Use:   "get <package-id | play-store-url | app name>",
	Short: "Resolve and download one APK to disk",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := log.Default()
		green := color.New(color.FgGreen).SprintFunc()
		dim := color.New(color.Faint).SprintFunc()

		probeClient := httputil.NewClient(httputil.ProbeOptions())
		store := playstore.NewClient(playstore.ClientOptions{HTTPClient: probeClient})

		input := args[0]
		if len(args) > 1 {
			// Free-text names may arrive unquoted.
			for _, a := range args[1:] {
				input += " " + a
			}
		}

		packageID := input
		switch {
		case playstore.IsStoreURL(input):
			packageID = playstore.ExtractPackageID(input)
			if packageID == "" {
				return fmt.Errorf("no package id in %q", input)
			}
		case !resolve.ValidPackageID(input):
			id, err := store.Search(ctx, input)
			if err != nil {
				return fmt.Errorf("store search: %w", err)
			}
			if id == "" {
				return fmt.Errorf("could not find %q on the store", input)
			}
			packageID = id
			fmt.Printf("%s resolved %q to %s\n", dim("○"), input, packageID)
		}

		set := provider.Defaults()
		coordinator := resolve.NewCoordinator([][]resolve.Prober{
			resolve.ProbersForTier(set, provider.TierCDN, probeClient),
			resolve.ProbersForTier(set, provider.TierPage, probeClient),
		}, resolve.CoordinatorOptions{Logger: logger})

		candidate, err := coordinator.Resolve(ctx, packageID)
		if err != nil {
			return err
		}
		fmt.Printf("%s candidate from %s\n", green("✓"), candidate.Source)

		hops := hop.NewResolver(hop.Options{Providers: set, Logger: logger})
		res, err := hops.Follow(ctx, candidate.URL)
		if err != nil {
			return err
		}
		defer res.Response.Body.Close()

		out := flagOutput
		if out == "" {
			info := store.FetchAppInfo(ctx, packageID)
			out = sanitizeName(info.Name) + ".apk"
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()

		bar := progressbar.DefaultBytes(
			res.Response.ContentLength,
			fmt.Sprintf("Downloading %s", packageID),
		)
		if _, err := io.Copy(io.MultiWriter(f, bar), res.Response.Body); err != nil {
			os.Remove(out)
			return fmt.Errorf("download interrupted: %w", err)
		}

		fmt.Printf("%s saved %s\n", green("✓"), out)
		return nil
	},
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

func sanitizeName(name string) string {
	name = unsafeName.ReplaceAllString(name, "_")
	if name == "" {
		return "app"
	}
	return name
}

func init() {
	getCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file (default <app name>.apk)")
	rootCmd.AddCommand(getCmd)
}
