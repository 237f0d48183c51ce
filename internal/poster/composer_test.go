package poster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lepinkainen/rss2sky/internal/bsky"
	"github.com/lepinkainen/rss2sky/internal/linkmeta"
	httputil "github.com/lepinkainen/rss2sky/pkg/http"
)

// fakeUploader records uploaded bytes and can be told to fail.
type fakeUploader struct {
	data []byte
	err  error
}

func (f *fakeUploader) UploadBlob(_ context.Context, data []byte) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.data = data
	return json.RawMessage(`{"$type":"blob","ref":{"$link":"bafyfake"}}`), nil
}

func imageClient() *httputil.Client {
	return httputil.NewClient(&httputil.ClientConfig{Timeout: 5 * time.Second, MaxRetries: 0})
}

func TestComposeImageEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	uploader := &fakeUploader{}
	c := NewComposer(uploader, imageClient())

	embed, kind := c.Compose(context.Background(), "Entry title", "https://example.com/post",
		linkmeta.Metadata{Title: "Page title", ImageURL: srv.URL + "/img.png"})

	if kind != EmbedImage {
		t.Fatalf("kind = %v, want image", kind)
	}
	images, ok := embed.(*bsky.ImagesEmbed)
	if !ok {
		t.Fatalf("embed type = %T", embed)
	}
	if images.Images[0].Alt != "Entry title" {
		t.Errorf("alt = %q, want entry title", images.Images[0].Alt)
	}
	if string(uploader.data) != "png-bytes" {
		t.Errorf("uploaded %q", uploader.data)
	}
}

func TestComposeFallsBackToCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewComposer(&fakeUploader{}, imageClient())
	embed, kind := c.Compose(context.Background(), "Entry", "https://example.com/post",
		linkmeta.Metadata{Title: "Page title", Description: "desc", ImageURL: srv.URL + "/gone.png"})

	if kind != EmbedExternal {
		t.Fatalf("kind = %v, want external (image fetch failed)", kind)
	}
	card := embed.(*bsky.ExternalEmbed)
	if card.External.URI != "https://example.com/post" || card.External.Title != "Page title" {
		t.Errorf("card = %+v", card.External)
	}
}

func TestComposeUploadFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img"))
	}))
	defer srv.Close()

	c := NewComposer(&fakeUploader{err: errors.New("upload rejected")}, imageClient())
	_, kind := c.Compose(context.Background(), "Entry", "https://example.com/post",
		linkmeta.Metadata{Title: "Page", ImageURL: srv.URL + "/img.png"})

	if kind != EmbedExternal {
		t.Errorf("kind = %v, want external after upload failure", kind)
	}
}

func TestComposeCardDefaults(t *testing.T) {
	c := NewComposer(&fakeUploader{}, imageClient())

	embed, kind := c.Compose(context.Background(), "Entry", "https://example.com/post",
		linkmeta.Metadata{Description: "only a description"})
	if kind != EmbedExternal {
		t.Fatalf("kind = %v, want external", kind)
	}
	card := embed.(*bsky.ExternalEmbed)
	if card.External.Title != "Link" {
		t.Errorf("card title = %q, want default", card.External.Title)
	}
}

func TestComposeNoMetadata(t *testing.T) {
	c := NewComposer(&fakeUploader{}, imageClient())
	embed, kind := c.Compose(context.Background(), "Entry", "https://example.com/post", linkmeta.Metadata{})
	if kind != EmbedNone || embed != nil {
		t.Errorf("Compose() = (%v, %v), want (nil, none)", embed, kind)
	}
}

func TestAltTextFallbacks(t *testing.T) {
	tests := []struct {
		entry, page, want string
	}{
		{"Entry", "Page", "Entry"},
		{"", "Page", "Page"},
		{"", "", "Preview image"},
	}
	for _, tt := range tests {
		if got := altText(tt.entry, tt.page); got != tt.want {
			t.Errorf("altText(%q, %q) = %q, want %q", tt.entry, tt.page, got, tt.want)
		}
	}
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name string
		meta linkmeta.Metadata
		want EmbedKind
	}{
		{"image wins", linkmeta.Metadata{Title: "t", ImageURL: "https://x/img.png"}, EmbedImage},
		{"title only", linkmeta.Metadata{Title: "t"}, EmbedExternal},
		{"description only", linkmeta.Metadata{Description: "d"}, EmbedExternal},
		{"nothing", linkmeta.Metadata{}, EmbedNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Predict(tt.meta); got != tt.want {
				t.Errorf("Predict() = %v, want %v", got, tt.want)
			}
		})
	}
}
