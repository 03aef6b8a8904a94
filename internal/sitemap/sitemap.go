// Package sitemap generates the site's sitemap.xml and the static route
// fallbacks the single-page app needs on dumb static hosting.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/replikanti/flowlint-tools/internal/logging"
)

// BaseURL is the canonical site origin.
const BaseURL = "https://flowlint.dev"

// Routes is the published route list, "/" first.
var Routes = []string{
	"/",
	"/get-started",
	"/support",
	"/doc",
	"/roadmap",
	"/cli",
	"/chrome-extension",
	"/privacy",
	"/tos",
}

// FallbackRoutes are the SPA paths that get a copied index.html so static
// hosting serves them with HTTP 200 instead of a 404 rewrite.
var FallbackRoutes = []string{
	"privacy",
	"support",
	"configuration",
	"chrome",
	"cli",
	"github",
	"rules",
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Write renders the sitemap for Routes to w. The home page is marked as
// changing daily with top priority; everything else weekly.
func Write(w io.Writer, now time.Time) error {
	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
	}
	lastMod := now.Format("2006-01-02")

	for _, route := range Routes {
		entry := urlEntry{
			Loc:        BaseURL + route,
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		}
		if route == "/" {
			entry.ChangeFreq = "daily"
			entry.Priority = "1.0"
		}
		set.URLs = append(set.URLs, entry)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("failed to encode sitemap: %w", err)
	}
	return enc.Close()
}

// WriteFile writes the sitemap to path, creating parent directories.
func WriteFile(path string, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create sitemap directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sitemap: %w", err)
	}
	defer f.Close()

	if err := Write(f, now); err != nil {
		return err
	}

	logging.Info("sitemap generated", "path", path)
	return nil
}

// GenerateFallbacks copies dist/index.html to 404.html and to
// <route>/index.html for every fallback route. A missing index.html means
// the site has not been built and is fatal.
func GenerateFallbacks(distDir string) error {
	indexPath := filepath.Join(distDir, "index.html")
	index, err := os.ReadFile(indexPath)
	if err != nil {
		return fmt.Errorf("dist/index.html not found, run the site build first: %w", err)
	}

	if err := os.WriteFile(filepath.Join(distDir, "404.html"), index, 0644); err != nil {
		return fmt.Errorf("failed to write 404.html: %w", err)
	}
	logging.Info("created 404.html")

	for _, route := range FallbackRoutes {
		dir := filepath.Join(distDir, route)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create route directory %s: %w", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "index.html"), index, 0644); err != nil {
			return fmt.Errorf("failed to write fallback for /%s: %w", route, err)
		}
		logging.Info("created static route fallback", "route", "/"+route)
	}

	return nil
}
