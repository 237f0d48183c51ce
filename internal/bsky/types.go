package bsky

import "encoding/json"

// Session holds the credentials returned by com.atproto.server.createSession.
type Session struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
}

// TimelineItem is one entry of an author feed. Reason is set when the item is
// a repost; it is kept raw because only its presence matters here.
type TimelineItem struct {
	Post   TimelinePost    `json:"post"`
	Reason json.RawMessage `json:"reason,omitempty"`
}

// TimelinePost is the post view inside a timeline item.
type TimelinePost struct {
	URI    string     `json:"uri"`
	CID    string     `json:"cid"`
	Record PostRecord `json:"record"`
}

// PostRecord is an app.bsky.feed.post record. Reply is kept raw; a non-nil
// value marks the post as a reply.
type PostRecord struct {
	Type      string          `json:"$type,omitempty"`
	Text      string          `json:"text"`
	Facets    []Facet         `json:"facets,omitempty"`
	Embed     any             `json:"embed,omitempty"`
	Reply     json.RawMessage `json:"reply,omitempty"`
	CreatedAt string          `json:"createdAt"`
}

// Facet annotates a byte range of post text with a rich-text feature.
type Facet struct {
	Index    ByteSlice      `json:"index"`
	Features []FacetFeature `json:"features"`
}

// ByteSlice is a facet's byte range over the UTF-8 post text.
type ByteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

// FacetFeature is a single rich-text feature: a link or a hashtag.
type FacetFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

// Facet feature and embed type identifiers.
const (
	FeatureLink = "app.bsky.richtext.facet#link"
	FeatureTag  = "app.bsky.richtext.facet#tag"

	embedImagesType   = "app.bsky.embed.images"
	embedExternalType = "app.bsky.embed.external"
	postRecordType    = "app.bsky.feed.post"
)

// ImagesEmbed is an app.bsky.embed.images embed.
type ImagesEmbed struct {
	Type   string       `json:"$type"`
	Images []EmbedImage `json:"images"`
}

// EmbedImage pairs an uploaded blob with its alt text.
type EmbedImage struct {
	Alt   string          `json:"alt"`
	Image json.RawMessage `json:"image"`
}

// NewImagesEmbed builds an images embed around a single uploaded blob.
func NewImagesEmbed(alt string, blob json.RawMessage) *ImagesEmbed {
	return &ImagesEmbed{
		Type:   embedImagesType,
		Images: []EmbedImage{{Alt: alt, Image: blob}},
	}
}

// ExternalEmbed is an app.bsky.embed.external link-card embed.
type ExternalEmbed struct {
	Type     string   `json:"$type"`
	External External `json:"external"`
}

// External is the card content of an external embed.
type External struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewExternalEmbed builds a link-card embed.
func NewExternalEmbed(uri, title, description string) *ExternalEmbed {
	return &ExternalEmbed{
		Type:     embedExternalType,
		External: External{URI: uri, Title: title, Description: description},
	}
}

// IsRepost reports whether the timeline item is a repost of another post.
func (it TimelineItem) IsRepost() bool {
	return len(it.Reason) > 0 && string(it.Reason) != "null"
}

// IsReply reports whether the timeline item's post replies to another post.
func (it TimelineItem) IsReply() bool {
	return len(it.Post.Record.Reply) > 0 && string(it.Post.Record.Reply) != "null"
}
