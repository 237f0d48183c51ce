// Package main provides the CLI entry point for rss2sky.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/lepinkainen/rss2sky/internal/bsky"
	"github.com/lepinkainen/rss2sky/internal/config"
	"github.com/lepinkainen/rss2sky/internal/feed"
	"github.com/lepinkainen/rss2sky/internal/linkmeta"
	"github.com/lepinkainen/rss2sky/internal/logging"
	"github.com/lepinkainen/rss2sky/internal/poster"
	"github.com/lepinkainen/rss2sky/internal/preview"
	httputil "github.com/lepinkainen/rss2sky/pkg/http"
	"github.com/lepinkainen/rss2sky/pkg/richtext"
	"github.com/lepinkainen/rss2sky/pkg/sanitize"
)

// CLI structure
var CLI struct {
	Config  string `help:"Configuration file path" default:"config.yaml"`
	Debug   bool   `help:"Enable debug logging" default:"false"`
	Service string `help:"Bluesky XRPC service base URL (overrides config)"`
	CacheDB string `name:"cache-db" help:"Link metadata cache database path (overrides config)"`

	Post struct {
		FeedURL     string `arg:"" name:"feed-url" help:"RSS/Atom feed URL"`
		Handle      string `arg:"" help:"Bluesky handle of the target account"`
		Identifier  string `arg:"" help:"Login identifier (handle or email)"`
		AppPassword string `arg:"" name:"app-password" help:"Bluesky app password"`
		DryRun      bool   `help:"Compose posts without sending them" default:"false"`
	} `cmd:"" default:"withargs" help:"Post new feed entries to Bluesky."`

	Preview struct {
		FeedURL string `arg:"" name:"feed-url" help:"RSS/Atom feed URL"`
		Limit   int    `help:"Maximum number of entries to preview" default:"10"`
	} `cmd:"" help:"Browse composed posts without logging in or posting."`
}

func main() {
	// Parse CLI with Kong YAML configuration file loading
	ctx := kong.Parse(&CLI,
		kong.Configuration(kongyaml.Loader, "config.yaml", "~/.rss2sky/config.yaml"),
	)

	logging.Setup(CLI.Debug)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if CLI.Service != "" {
		cfg.Service.URL = CLI.Service
	}
	if CLI.CacheDB != "" {
		cfg.Cache.Path = CLI.CacheDB
	}

	command, _, _ := strings.Cut(ctx.Command(), " ")
	switch command {
	case "post":
		runPost(cfg)
	case "preview":
		runPreview(cfg)
	default:
		panic(ctx.Command())
	}
}

// runPost executes one posting pass over the feed.
func runPost(cfg *config.Config) {
	fetcher, cache := newMetadataFetcher(cfg)
	if cache != nil {
		defer cache.Close()
	}

	client := bsky.NewClient(cfg.Service.URL, httputil.NewClient(&httputil.ClientConfig{
		Timeout:    cfg.Timeouts.Service,
		MaxRetries: 0, // XRPC POST bodies are not replayable
		UserAgent:  cfg.Service.UserAgent,
	}))

	composer := poster.NewComposer(client, httputil.NewClient(&httputil.ClientConfig{
		Timeout:    cfg.Timeouts.Image,
		MaxRetries: 1,
		UserAgent:  cfg.Service.UserAgent,
	}))

	p := poster.New(client, newFeedClient(cfg), fetcher, composer, poster.Backoff{
		Initial: cfg.Login.Backoff,
		Step:    cfg.Login.BackoffStep,
		Max:     cfg.Login.BackoffMax,
	})

	err := p.Run(context.Background(), poster.Options{
		FeedURL:    CLI.Post.FeedURL,
		Handle:     CLI.Post.Handle,
		Identifier: CLI.Post.Identifier,
		Password:   CLI.Post.AppPassword,
		DryRun:     CLI.Post.DryRun,
	})
	if err != nil {
		slog.Error("Posting run failed", "error", err)
		os.Exit(1)
	}
}

// runPreview composes posts for the feed and opens the TUI; nothing is
// uploaded or sent.
func runPreview(cfg *config.Config) {
	fetcher, cache := newMetadataFetcher(cfg)
	if cache != nil {
		defer cache.Close()
	}

	ctx := context.Background()
	entries, err := feed.Load(ctx, newFeedClient(cfg), CLI.Preview.FeedURL)
	if err != nil {
		slog.Error("Failed to load feed", "error", err)
		os.Exit(1)
	}

	if CLI.Preview.Limit > 0 && len(entries) > CLI.Preview.Limit {
		entries = entries[:CLI.Preview.Limit]
	}

	items := make([]preview.Item, 0, len(entries))
	for _, entry := range entries {
		title := sanitize.Clean(entry.Title)
		meta := fetcher.Fetch(ctx, entry.Link)

		items = append(items, preview.Item{
			Title:       title,
			Link:        entry.Link,
			PublishedAt: entry.PublishedAt,
			Runs:        richtext.Tokenize(title + "\n" + entry.Link),
			Meta:        meta,
			Embed:       poster.Predict(meta),
		})
	}

	if err := preview.Run(items, CLI.Preview.FeedURL); err != nil {
		slog.Error("Preview failed", "error", err)
		os.Exit(1)
	}
}

// newFeedClient builds the client used for the feed download itself. No
// retries here: a failed feed fetch aborts the run.
func newFeedClient(cfg *config.Config) *httputil.Client {
	return httputil.NewClient(&httputil.ClientConfig{
		Timeout:    cfg.Timeouts.FeedFetch,
		MaxRetries: 0,
		UserAgent:  cfg.Service.UserAgent,
	})
}

// newMetadataFetcher builds the link-preview fetcher, with its sqlite cache
// when one is configured. A cache that fails to open is logged and skipped.
func newMetadataFetcher(cfg *config.Config) (*linkmeta.Fetcher, *linkmeta.Database) {
	var cache *linkmeta.Database
	if cfg.Cache.Path != "" {
		var err error
		if cache, err = linkmeta.OpenDatabase(cfg.Cache.Path); err != nil {
			slog.Warn("Metadata cache unavailable, continuing without it", "path", cfg.Cache.Path, "error", err)
			cache = nil
		}
	}

	client := httputil.NewClient(&httputil.ClientConfig{
		Timeout:    cfg.Timeouts.Metadata,
		MaxRetries: 1,
		UserAgent:  cfg.Service.UserAgent,
	})

	return linkmeta.NewFetcher(client, cache, cfg.Cache.TTL), cache
}
