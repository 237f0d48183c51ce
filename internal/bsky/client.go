// Package bsky is a thin XRPC client for the handful of Bluesky calls the
// posting pipeline needs: session login, author feed, blob upload and post
// creation.
package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	httputil "github.com/lepinkainen/rss2sky/pkg/http"
	"github.com/lepinkainen/rss2sky/pkg/richtext"
)

// Client talks XRPC to a single Bluesky service. Login must succeed before
// any of the authenticated calls are used.
type Client struct {
	serviceURL string
	http       *httputil.Client
	session    *Session
	now        func() time.Time
}

// NewClient creates a client for the given service base URL,
// e.g. "https://bsky.social".
func NewClient(serviceURL string, client *httputil.Client) *Client {
	if client == nil {
		client = httputil.NewClient(nil)
	}
	return &Client{
		serviceURL: serviceURL,
		http:       client,
		now:        time.Now,
	}
}

// Login creates a session with an identifier (handle or email) and an app
// password. The resulting access token authenticates all later calls.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode login request: %w", err)
	}

	resp, err := c.http.PostWithContext(ctx, c.xrpcURL("com.atproto.server.createSession"), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("createSession request failed: %w", err)
	}

	var session Session
	if err := httputil.DecodeJSONResponse(resp, &session); err != nil {
		return fmt.Errorf("createSession failed: %w", err)
	}

	c.session = &session
	slog.Debug("Session created", "handle", session.Handle, "did", session.DID)
	return nil
}

// AuthorFeed returns the timeline items of the given actor, newest first, as
// delivered by app.bsky.feed.getAuthorFeed.
func (c *Client) AuthorFeed(ctx context.Context, actor string) ([]TimelineItem, error) {
	endpoint := c.xrpcURL("app.bsky.feed.getAuthorFeed") + "?actor=" + url.QueryEscape(actor)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create getAuthorFeed request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.DoRequest(req)
	if err != nil {
		return nil, fmt.Errorf("getAuthorFeed request failed: %w", err)
	}

	var feed struct {
		Feed []TimelineItem `json:"feed"`
	}
	if err := httputil.DecodeJSONResponse(resp, &feed); err != nil {
		return nil, fmt.Errorf("getAuthorFeed failed: %w", err)
	}

	return feed.Feed, nil
}

// UploadBlob uploads raw bytes and returns the blob reference to embed in a
// record. The content type is sniffed from the data.
func (c *Client) UploadBlob(ctx context.Context, data []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.xrpcURL("com.atproto.repo.uploadBlob"), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create uploadBlob request: %w", err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(data))
	c.authorize(req)

	resp, err := c.http.DoRequest(req)
	if err != nil {
		return nil, fmt.Errorf("uploadBlob request failed: %w", err)
	}

	var uploaded struct {
		Blob json.RawMessage `json:"blob"`
	}
	if err := httputil.DecodeJSONResponse(resp, &uploaded); err != nil {
		return nil, fmt.Errorf("uploadBlob failed: %w", err)
	}
	if len(uploaded.Blob) == 0 {
		return nil, fmt.Errorf("uploadBlob returned no blob reference")
	}

	return uploaded.Blob, nil
}

// CreatePost publishes a post built from rich-text runs with an optional
// embed.
func (c *Client) CreatePost(ctx context.Context, runs []richtext.Run, embed any) error {
	if c.session == nil {
		return fmt.Errorf("createRecord requires a session, call Login first")
	}

	text, facets := BuildRecordText(runs)

	record := PostRecord{
		Type:      postRecordType,
		Text:      text,
		Facets:    facets,
		Embed:     embed,
		CreatedAt: c.now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(map[string]any{
		"repo":       c.session.DID,
		"collection": postRecordType,
		"record":     record,
	})
	if err != nil {
		return fmt.Errorf("failed to encode createRecord request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.xrpcURL("com.atproto.repo.createRecord"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create createRecord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.DoRequest(req)
	if err != nil {
		return fmt.Errorf("createRecord request failed: %w", err)
	}

	var created struct {
		URI string `json:"uri"`
		CID string `json:"cid"`
	}
	if err := httputil.DecodeJSONResponse(resp, &created); err != nil {
		return fmt.Errorf("createRecord failed: %w", err)
	}

	slog.Debug("Post created", "uri", created.URI)
	return nil
}

// authorize attaches the session token to a request.
func (c *Client) authorize(req *http.Request) {
	if c.session != nil {
		req.Header.Set("Authorization", "Bearer "+c.session.AccessJwt)
	}
}

func (c *Client) xrpcURL(nsid string) string {
	return c.serviceURL + "/xrpc/" + nsid
}
