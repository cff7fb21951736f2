package scraper

import (
	"context"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cliq_go/internal/infra"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestExtractCandidates_Order(t *testing.T) {
	html := `<html><head>
		<meta name="twitter:image" content="https://cdn.example.com/tw.jpg">
		<meta property="og:image" content="https://cdn.example.com/og.jpg">
		<script type="application/ld+json">{"@type":"Product","image":["https://cdn.example.com/ld.jpg"]}</script>
		</head><body>
		<img class="logo" src="/logo.png">
		<img class="product-main" src="/p.jpg">
		</body></html>`

	got := ExtractCandidates(parse(t, html))
	want := []string{
		"https://cdn.example.com/og.jpg",
		"https://cdn.example.com/tw.jpg",
		"https://cdn.example.com/ld.jpg",
		"/p.jpg",
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d candidates, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestJSONLDImages(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"string", `{"image":"https://a.example.com/x.jpg"}`, 1},
		{"image object", `{"image":{"@type":"ImageObject","url":"https://a.example.com/x.jpg"}}`, 1},
		{"graph", `{"@graph":[{"@type":"Product","image":["a","b"]}]}`, 2},
		{"invalid json", `{not json`, 0},
		{"no image", `{"name":"thing"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jsonLDImages([]byte(tt.in)); len(got) != tt.want {
				t.Errorf("jsonLDImages() = %v, want %d values", got, tt.want)
			}
		})
	}
}

func TestIsValidImageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.com/jacket.jpg", true},
		{"https://cdn.example.com/1x1.png", false},
		{"https://cdn.example.com/tracking/p.png", false},
		{"https://cdn.example.com/logo.svg", false},
		{"https://cdn.example.com/spinner.gif", false},
		{"data:image/png;base64,AAAA", false},
		{"a.jpg", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := isValidImageURL(tt.url); got != tt.want {
				t.Errorf("isValidImageURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	base := mustParse(t, "https://shop.example.com/items/42")
	tests := []struct {
		raw  string
		want string
	}{
		{"//cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"/img/a.jpg", "https://shop.example.com/img/a.jpg"},
		{"a.jpg", "https://shop.example.com/items/a.jpg"},
		{"https://other.example.com/b.jpg", "https://other.example.com/b.jpg"},
		{"javascript:void(0)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := resolveURL(base, tt.raw); got != tt.want {
				t.Errorf("resolveURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func newPage(t *testing.T, body func(base string) string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("User-Agent") != infra.DefaultUserAgent {
			t.Errorf("Missing browser user agent: %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, body(srv.URL))
	})
	mux.HandleFunc("/big.png", func(w http.ResponseWriter, r *http.Request) {
		_ = imaging.Encode(w, imaging.New(200, 200, color.White), imaging.PNG)
	})
	mux.HandleFunc("/small.png", func(w http.ResponseWriter, r *http.Request) {
		_ = imaging.Encode(w, imaging.New(40, 40, color.White), imaging.PNG)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestImageScraper_ScrapeImage(t *testing.T) {
	infra.GlobalMetrics.Reset()

	t.Run("og image resolved and cached", func(t *testing.T) {
		srv, hits := newPage(t, func(string) string {
			return `<html><head><meta property="og:image" content="/big.png"></head></html>`
		})
		s := NewImageScraper(Config{Timeout: 2 * time.Second})

		img, ok := s.ScrapeImage(context.Background(), srv.URL+"/page")
		if !ok || img != srv.URL+"/big.png" {
			t.Fatalf("ScrapeImage() = %q, %v", img, ok)
		}
		if _, ok := s.ScrapeImage(context.Background(), srv.URL+"/page"); !ok {
			t.Error("Expected cached hit")
		}
		if hits.Load() != 1 {
			t.Errorf("Expected 1 page fetch, got %d", hits.Load())
		}
	})

	t.Run("small image skipped for next candidate", func(t *testing.T) {
		srv, _ := newPage(t, func(string) string {
			return `<html><head>
				<meta property="og:image" content="/small.png">
				<meta name="twitter:image" content="/big.png">
				</head></html>`
		})
		s := NewImageScraper(Config{Timeout: 2 * time.Second, MinImagePx: 100})

		img, ok := s.ScrapeImage(context.Background(), srv.URL+"/page")
		if !ok || !strings.HasSuffix(img, "/big.png") {
			t.Errorf("ScrapeImage() = %q, %v; want big.png", img, ok)
		}
	})

	t.Run("misses are cached", func(t *testing.T) {
		srv, hits := newPage(t, func(string) string { return "" })
		s := NewImageScraper(Config{Timeout: 2 * time.Second})

		for i := 0; i < 3; i++ {
			if _, ok := s.ScrapeImage(context.Background(), srv.URL+"/missing"); ok {
				t.Fatal("Expected miss for 404 page")
			}
		}
		if hits.Load() != 1 {
			t.Errorf("Expected 1 fetch for cached miss, got %d", hits.Load())
		}
	})

	t.Run("empty url", func(t *testing.T) {
		s := NewImageScraper(Config{})
		if _, ok := s.ScrapeImage(context.Background(), ""); ok {
			t.Error("Expected miss for empty url")
		}
	})

	snap := infra.GlobalMetrics.Snapshot()
	if snap.ScrapeHits == 0 || snap.ScrapeMisses == 0 {
		t.Errorf("Expected scrape hits and misses recorded, got %+v", snap)
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
