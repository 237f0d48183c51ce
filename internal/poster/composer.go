package poster

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/lepinkainen/rss2sky/internal/bsky"
	"github.com/lepinkainen/rss2sky/internal/linkmeta"
	httputil "github.com/lepinkainen/rss2sky/pkg/http"
)

// EmbedKind names the embed variant attached to a post.
type EmbedKind int

const (
	// EmbedNone means the post carries no embed.
	EmbedNone EmbedKind = iota
	// EmbedImage is a preview-image embed built from an uploaded blob.
	EmbedImage
	// EmbedExternal is a link-preview card embed.
	EmbedExternal
)

func (k EmbedKind) String() string {
	switch k {
	case EmbedImage:
		return "image"
	case EmbedExternal:
		return "external"
	default:
		return "none"
	}
}

// BlobUploader is the remote blob-upload primitive the composer needs.
type BlobUploader interface {
	UploadBlob(ctx context.Context, data []byte) (json.RawMessage, error)
}

// Composer turns an entry plus its link metadata into an embed. An image
// embed wins when a preview image can be fetched and uploaded; otherwise a
// link card is used when the page yielded a title or description; otherwise
// the post goes out bare.
type Composer struct {
	uploader BlobUploader
	images   *httputil.Client
}

// NewComposer creates a composer. images is the client used to download
// preview image bytes.
func NewComposer(uploader BlobUploader, images *httputil.Client) *Composer {
	if images == nil {
		images = httputil.NewClient(nil)
	}
	return &Composer{uploader: uploader, images: images}
}

// Compose selects and builds the embed for an entry. title is the sanitized
// entry title, link the entry URL. Image fetch or upload failures fall
// through to the link-card path; they never fail the post.
func (c *Composer) Compose(ctx context.Context, title, link string, meta linkmeta.Metadata) (any, EmbedKind) {
	if meta.ImageURL != "" {
		if blob, ok := c.fetchAndUpload(ctx, meta.ImageURL); ok {
			return bsky.NewImagesEmbed(altText(title, meta.Title), blob), EmbedImage
		}
	}

	if meta.Title != "" || meta.Description != "" {
		cardTitle := meta.Title
		if cardTitle == "" {
			cardTitle = "Link"
		}
		return bsky.NewExternalEmbed(link, cardTitle, meta.Description), EmbedExternal
	}

	return nil, EmbedNone
}

// Predict returns the embed kind Compose would produce for the given
// metadata, assuming a successful image upload. Used by the dry-run preview.
func Predict(meta linkmeta.Metadata) EmbedKind {
	switch {
	case meta.ImageURL != "":
		return EmbedImage
	case meta.Title != "" || meta.Description != "":
		return EmbedExternal
	default:
		return EmbedNone
	}
}

// fetchAndUpload downloads the preview image and uploads it as a blob.
func (c *Composer) fetchAndUpload(ctx context.Context, imageURL string) (json.RawMessage, bool) {
	resp, err := c.images.GetWithContext(ctx, imageURL)
	if err != nil {
		slog.Warn("Could not fetch preview image", "url", imageURL, "error", err)
		return nil, false
	}

	if err := httputil.EnsureStatusOK(resp); err != nil {
		_ = resp.Body.Close()
		slog.Warn("Could not fetch preview image", "url", imageURL, "error", err)
		return nil, false
	}

	data, err := httputil.ReadResponseBody(resp)
	if err != nil {
		slog.Warn("Could not read preview image", "url", imageURL, "error", err)
		return nil, false
	}

	blob, err := c.uploader.UploadBlob(ctx, data)
	if err != nil {
		slog.Warn("Could not upload preview image", "url", imageURL, "error", err)
		return nil, false
	}

	slog.Debug("Preview image uploaded", "url", imageURL, "bytes", len(data))
	return blob, true
}

// altText picks the image alt text: entry title, then page title, then a
// fixed fallback.
func altText(entryTitle, pageTitle string) string {
	if entryTitle != "" {
		return entryTitle
	}
	if pageTitle != "" {
		return pageTitle
	}
	return "Preview image"
}
