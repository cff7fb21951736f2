// Package scraper finds product images on retailer pages.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"cliq_go/internal/infra"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
	"github.com/goccy/go-json"
)

const (
	maxPageBytes  = 4 << 20
	maxImageBytes = 8 << 20
)

// Config configures the scraper
type Config struct {
	Timeout time.Duration
	// MinImagePx rejects candidates smaller than this in either dimension.
	// Zero disables downloading candidates for a size check.
	MinImagePx int
}

// ImageScraper looks up a representative product image for a retailer URL.
// Results, including misses, are cached per source URL for the process lifetime.
type ImageScraper struct {
	client  *http.Client
	cfg     Config
	metrics *infra.Metrics

	mu    sync.RWMutex
	cache map[string]string // source url -> image url ("" = miss)
}

// NewImageScraper creates a scraper
func NewImageScraper(cfg Config) *ImageScraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &ImageScraper{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		cfg:     cfg,
		metrics: infra.GlobalMetrics,
		cache:   make(map[string]string),
	}
}

// ScrapeImage returns the best image URL found on sourceURL. ok is false when
// the page could not be fetched or had no usable image.
func (s *ImageScraper) ScrapeImage(ctx context.Context, sourceURL string) (string, bool) {
	if sourceURL == "" {
		return "", false
	}

	s.mu.RLock()
	cached, hit := s.cache[sourceURL]
	s.mu.RUnlock()
	if hit {
		return cached, cached != ""
	}

	img, err := s.scrape(ctx, sourceURL)
	if err != nil {
		// a cancelled request says nothing about the page
		if ctx.Err() != nil {
			return "", false
		}
		slog.Debug("Image scrape failed", slog.String("url", sourceURL), slog.Any("error", err))
	}

	s.mu.Lock()
	s.cache[sourceURL] = img
	s.mu.Unlock()

	s.metrics.RecordScrape(img != "")
	return img, img != ""
}

func (s *ImageScraper) scrape(ctx context.Context, sourceURL string) (string, error) {
	resp, err := s.get(ctx, sourceURL, "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	// resolve against the final URL after redirects
	base := resp.Request.URL
	for _, candidate := range ExtractCandidates(doc) {
		abs := resolveURL(base, candidate)
		if abs == "" || !isValidImageURL(abs) {
			continue
		}
		if s.cfg.MinImagePx > 0 && !s.largeEnough(ctx, abs) {
			continue
		}
		return abs, nil
	}
	return "", nil
}

func (s *ImageScraper) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return s.client.Do(req)
}

// largeEnough downloads the candidate and checks its dimensions
func (s *ImageScraper) largeEnough(ctx context.Context, imageURL string) bool {
	resp, err := s.get(ctx, imageURL, "image/*")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	img, err := imaging.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return false
	}
	b := img.Bounds()
	return b.Dx() >= s.cfg.MinImagePx && b.Dy() >= s.cfg.MinImagePx
}

var productImageHint = regexp.MustCompile(`(?i)product|hero|main|primary|featured`)

// ExtractCandidates lists image URLs in priority order: Open Graph, Twitter
// card, JSON-LD structured data, then product-looking <img> elements.
func ExtractCandidates(doc *goquery.Document) []string {
	var out []string
	add := func(u string) {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}

	doc.Find(`meta[property="og:image"], meta[property="og:image:url"]`).Each(func(_ int, sel *goquery.Selection) {
		add(sel.AttrOr("content", ""))
	})
	doc.Find(`meta[name="twitter:image"], meta[property="twitter:image"]`).Each(func(_ int, sel *goquery.Selection) {
		add(sel.AttrOr("content", ""))
	})
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		for _, u := range jsonLDImages([]byte(sel.Text())) {
			add(u)
		}
	})
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		hint := sel.AttrOr("class", "") + " " + sel.AttrOr("id", "")
		if productImageHint.MatchString(hint) {
			add(sel.AttrOr("src", ""))
		}
	})
	return out
}

// jsonLDImages pulls "image" values out of a JSON-LD block. The field may be a
// string, a list of strings, an ImageObject, or nested in an @graph.
func jsonLDImages(data []byte) []string {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil
	}

	var out []string
	var walk func(v any, depth int)
	walk = func(v any, depth int) {
		if depth > 6 {
			return
		}
		switch t := v.(type) {
		case []any:
			for _, e := range t {
				walk(e, depth+1)
			}
		case map[string]any:
			if img, ok := t["image"]; ok {
				out = append(out, imageValues(img)...)
			}
			if g, ok := t["@graph"]; ok {
				walk(g, depth+1)
			}
		}
	}
	walk(root, 0)
	return out
}

func imageValues(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, e := range t {
			out = append(out, imageValues(e)...)
		}
		return out
	case map[string]any:
		if u, ok := t["url"].(string); ok {
			return []string{u}
		}
		if u, ok := t["contentUrl"].(string); ok {
			return []string{u}
		}
	}
	return nil
}

var skipPatterns = []string{"1x1", "pixel", "spacer", "blank", "tracking", ".svg", ".gif", "data:image", "base64"}

// isValidImageURL filters tracking pixels, icons and inline data
func isValidImageURL(u string) bool {
	if len(u) < 10 {
		return false
	}
	lower := strings.ToLower(u)
	for _, p := range skipPatterns {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

func resolveURL(base *url.URL, raw string) string {
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base == nil {
		if !ref.IsAbs() {
			return ""
		}
		return ref.String()
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
