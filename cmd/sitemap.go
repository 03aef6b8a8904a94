package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/replikanti/flowlint-tools/internal/sitemap"
)

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Generate public/sitemap.xml for the published routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		return sitemap.WriteFile(output, time.Now())
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Create static route fallbacks in the built site",
	Long: `Copy the built index.html to 404.html and to <route>/index.html for
each SPA route, so static hosting answers deep links with HTTP 200.
Run after the site build.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		distDir, err := cmd.Flags().GetString("dist")
		if err != nil {
			return err
		}

		return sitemap.GenerateFallbacks(distDir)
	},
}

func init() {
	sitemapCmd.Flags().StringP("output", "o", "public/sitemap.xml", "Sitemap output path")
	routesCmd.Flags().StringP("dist", "d", "dist", "Built site directory")
}
