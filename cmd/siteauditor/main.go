package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"siteauditor/internal/cache"
	"siteauditor/internal/config"
	"siteauditor/internal/log"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "siteauditor",
	Short: "Website SEO and entity-trust audits",
	Long: `siteauditor inspects websites the way a search engine or AI crawler sees
them. It fetches a site's home page, runs a fixed battery of technical SEO,
on-page, entity-trust and hygiene checks, extracts structured data and
contact details, and produces a weighted 0-100 score with a letter grade.

Run "siteauditor serve" to expose the audit API over HTTP, or
"siteauditor audit <url>" for a one-shot audit printed to stdout.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Logger first: config loading wants to log.
		log.InitLogger()
		config.LoadEnv()
		cache.Init(time.Duration(config.AppConfig.CacheTTLMinutes) * time.Minute)
	},
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
