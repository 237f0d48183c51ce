// Package poster drives one pass of the feed-to-Bluesky pipeline: login,
// dedup against the account's own history, per-entry enrichment and posting.
package poster

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lepinkainen/rss2sky/internal/bsky"
	"github.com/lepinkainen/rss2sky/internal/feed"
	"github.com/lepinkainen/rss2sky/internal/linkmeta"
	httputil "github.com/lepinkainen/rss2sky/pkg/http"
	"github.com/lepinkainen/rss2sky/pkg/richtext"
	"github.com/lepinkainen/rss2sky/pkg/sanitize"
)

// Client is the remote social collaborator consumed by the driver.
type Client interface {
	Login(ctx context.Context, identifier, password string) error
	AuthorFeed(ctx context.Context, actor string) ([]bsky.TimelineItem, error)
	UploadBlob(ctx context.Context, data []byte) (json.RawMessage, error)
	CreatePost(ctx context.Context, runs []richtext.Run, embed any) error
}

// Options are the per-run parameters.
type Options struct {
	FeedURL    string
	Handle     string // target account whose history gates posting
	Identifier string // login identifier (handle or email)
	Password   string // app password
	DryRun     bool   // compose but do not upload or submit
}

// Backoff configures the linear login retry: start at Initial, add Step per
// failure, never exceed Max.
type Backoff struct {
	Initial time.Duration
	Step    time.Duration
	Max     time.Duration
}

// Poster sequences one pipeline pass. Entries are processed strictly in feed
// order; per-entry failures are logged and skipped, only login, author feed
// and feed download failures are fatal.
type Poster struct {
	client     Client
	feedClient *httputil.Client
	meta       *linkmeta.Fetcher
	composer   *Composer
	backoff    Backoff

	// injectable for tests
	sleep func(time.Duration)
}

// New creates a pipeline driver.
func New(client Client, feedClient *httputil.Client, meta *linkmeta.Fetcher, composer *Composer, backoff Backoff) *Poster {
	if feedClient == nil {
		feedClient = httputil.NewClient(nil)
	}
	return &Poster{
		client:     client,
		feedClient: feedClient,
		meta:       meta,
		composer:   composer,
		backoff:    backoff,
		sleep:      time.Sleep,
	}
}

// Run executes one pass over the feed.
func (p *Poster) Run(ctx context.Context, opts Options) error {
	if err := p.login(ctx, opts.Identifier, opts.Password); err != nil {
		return err
	}

	items, err := p.client.AuthorFeed(ctx, opts.Handle)
	if err != nil {
		return err
	}
	marker := LastPostTime(items)
	slog.Info("Last top-level post on account", "handle", opts.Handle, "marker", marker)

	entries, err := feed.Load(ctx, p.feedClient, opts.FeedURL)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		p.process(ctx, entry, marker, opts.DryRun)
	}
	return nil
}

// process handles a single entry; its failures never abort the run.
func (p *Poster) process(ctx context.Context, entry feed.Entry, marker time.Time, dryRun bool) {
	title := sanitize.Clean(entry.Title)
	body := title + "\n" + entry.Link
	runs := richtext.Tokenize(body)

	slog.Info("Considering entry",
		"link", entry.Link,
		"published", entry.PublishedAt,
		"marker", marker,
		"text_len", len(body),
		"runs", len(runs))

	if !ShouldPost(entry.PublishedAt, marker) {
		slog.Debug("Not posting, entry predates marker", "link", entry.Link)
		return
	}

	meta := p.meta.Fetch(ctx, entry.Link)

	if dryRun {
		slog.Info("Dry run, post not sent", "link", entry.Link, "embed", Predict(meta))
		return
	}

	embed, kind := p.composer.Compose(ctx, title, entry.Link, meta)

	if err := p.client.CreatePost(ctx, runs, embed); err != nil {
		slog.Error("Failed to send post", "link", entry.Link, "error", err)
		return
	}
	slog.Info("Posted entry", "link", entry.Link, "embed", kind)
}

// login retries indefinitely with capped linear backoff. It is the one
// unbounded-retry point in the pipeline; only context cancellation stops it.
func (p *Poster) login(ctx context.Context, identifier, password string) error {
	delay := p.backoff.Initial
	for {
		err := p.client.Login(ctx, identifier, password)
		if err == nil {
			slog.Info("Logged in", "identifier", identifier)
			return nil
		}

		slog.Error("Login failed, will retry", "backoff", delay, "error", err)
		p.sleep(delay)

		if delay += p.backoff.Step; delay > p.backoff.Max {
			delay = p.backoff.Max
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
