package linkmeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httputil "github.com/lepinkainen/rss2sky/pkg/http"
)

func testFetcher(db *Database) *Fetcher {
	return NewFetcher(httputil.NewClient(&httputil.ClientConfig{
		Timeout:    5 * time.Second,
		MaxRetries: 0,
	}), db, time.Hour)
}

func TestFetchExtractsOpenGraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="Article title">
			<meta property="og:description" content="Article summary">
			<meta property="og:image" content="https://example.com/hero.png">
		</head></html>`))
	}))
	defer srv.Close()

	got := testFetcher(nil).Fetch(context.Background(), srv.URL)
	want := Metadata{
		Title:       "Article title",
		Description: "Article summary",
		ImageURL:    "https://example.com/hero.png",
	}
	if got != want {
		t.Errorf("Fetch() = %+v, want %+v", got, want)
	}
}

func TestFetchFailuresReturnEmpty(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer notFound.Close()

	binary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer binary.Close()

	f := testFetcher(nil)
	tests := []struct {
		name string
		url  string
	}{
		{"invalid URL", "not-a-url"},
		{"404 response", notFound.URL},
		{"non-HTML content type", binary.URL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Fetch(context.Background(), tt.url); !got.IsEmpty() {
				t.Errorf("Fetch(%q) = %+v, want empty", tt.url, got)
			}
		})
	}
}

func TestFetchUsesCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Cached page</title></head></html>`))
	}))
	defer srv.Close()

	db, err := OpenDatabase(t.TempDir() + "/cache.db")
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	defer db.Close()

	f := testFetcher(db)
	first := f.Fetch(context.Background(), srv.URL)
	second := f.Fetch(context.Background(), srv.URL)

	if hits != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}
	if first != second {
		t.Errorf("cached result %+v differs from fresh %+v", second, first)
	}
	if first.Title != "Cached page" {
		t.Errorf("title = %q", first.Title)
	}
}

func TestFetchCachesFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	db, err := OpenDatabase(t.TempDir() + "/cache.db")
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	defer db.Close()

	f := testFetcher(db)
	f.Fetch(context.Background(), srv.URL)
	got := f.Fetch(context.Background(), srv.URL)

	if hits != 1 {
		t.Errorf("server hit %d times, want 1 (negative entry should be cached)", hits)
	}
	if !got.IsEmpty() {
		t.Errorf("cached failure should yield empty metadata, got %+v", got)
	}
}
