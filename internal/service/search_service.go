package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cliq_go/internal/domain"
	"cliq_go/internal/infra"

	"github.com/goccy/go-json"
)

// Completer is the language model surface the search service needs
type Completer interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ProfileSource supplies the stored profile for requests that omit one
type ProfileSource interface {
	Profile() (domain.UserProfile, error)
}

// SearchService interprets shopping queries. The language model is used when
// configured; every failure falls back to the keyword interpreter.
type SearchService struct {
	llm      Completer // nil = keyword interpreter only
	mock     *MockInterpreter
	scraper  domain.ImageScraper // nil = no image enrichment
	profiles ProfileSource
	metrics  *infra.Metrics

	maxConcurrency int
}

// NewSearchService creates a search service. llm and scraper may be nil.
func NewSearchService(llm Completer, scraper domain.ImageScraper, profiles ProfileSource, maxConcurrency int) *SearchService {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &SearchService{
		llm:            llm,
		mock:           NewMockInterpreter(),
		scraper:        scraper,
		profiles:       profiles,
		metrics:        infra.GlobalMetrics,
		maxConcurrency: maxConcurrency,
	}
}

// Search answers a query. The only error is ErrEmptyQuery.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	if req.UserProfile == nil && s.profiles != nil {
		if p, err := s.profiles.Profile(); err == nil {
			req.UserProfile = &p
		} else {
			slog.Warn("Failed to load stored profile", slog.Any("error", err))
		}
	}
	if req.UserProfile != nil {
		req.UserProfile.Normalize()
	}

	resp, err := s.Interpret(ctx, req)
	fallback := err != nil
	if fallback {
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			slog.Warn("LLM interpretation failed, using keyword fallback", slog.Any("error", err))
		}
		resp = s.mock.Respond(req)
	}
	s.metrics.RecordSearch(fallback)

	if len(resp.Products) > 0 {
		s.EnrichImages(ctx, resp.Products)
	}
	return resp, nil
}

// Interpret asks the language model. It implements domain.QueryInterpreter.
func (s *SearchService) Interpret(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if s.llm == nil {
		return nil, domain.ErrUpstreamUnavailable
	}

	reply, err := s.llm.CompleteWithSystem(ctx, systemPrompt, buildUserMessage(req))
	if err != nil {
		return nil, err
	}
	return ParseReply(reply)
}

// ParseReply decodes a model reply, tolerating a surrounding code fence
func ParseReply(reply string) (*domain.SearchResponse, error) {
	text := stripCodeFence(reply)
	if text == "" {
		return nil, fmt.Errorf("%w: empty", domain.ErrMalformedReply)
	}

	var resp domain.SearchResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedReply, err)
	}

	if resp.AgentMessage == "" {
		resp.AgentMessage = "Here are some recommendations for you."
	}
	if resp.Products == nil {
		resp.Products = []domain.Product{}
	}
	if resp.LearnedPreferences != nil && resp.LearnedPreferences.IsEmpty() {
		resp.LearnedPreferences = nil
	}
	return &resp, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// drop the opening fence line, which may carry a language tag
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// EnrichImages replaces product images with ones scraped from each source
// page. Lookups run concurrently, bounded by maxConcurrency; a product keeps
// its existing image when nothing is found.
func (s *SearchService) EnrichImages(ctx context.Context, products []domain.Product) {
	if s.scraper == nil {
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.maxConcurrency)

	for i := range products {
		if products[i].SourceURL == "" {
			continue
		}
		wg.Add(1)
		go func(p *domain.Product) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Image enrichment panicked", slog.String("product", p.ID), slog.Any("panic", r))
				}
			}()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			if img, ok := s.scraper.ScrapeImage(ctx, p.SourceURL); ok {
				p.ImageURL = img
			}
		}(&products[i])
	}

	wg.Wait()
}
