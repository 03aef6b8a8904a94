package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowlint-tools",
	Short: "Build and support tooling for the FlowLint website",
	Long: `flowlint-tools bundles the operational pieces behind flowlint.dev:
the build-time rule example aggregator, the sitemap and static route
generators, and the support ticket server that turns form submissions
into GitHub issues.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(examplesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sitemapCmd)
	rootCmd.AddCommand(routesCmd)
}
