package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedSource = errors.New("unsupported video source")
	ErrNotConfigured     = errors.New("search provider not configured")
	ErrEmptyQuery        = errors.New("query is required")
)

type Source string

const (
	SourceYouTube     Source = "youtube"
	SourceDailymotion Source = "dailymotion"
)

func (s Source) Valid() bool {
	switch s {
	case SourceYouTube, SourceDailymotion:
		return true
	}

	return false
}

type Video struct {
	Id        string `json:"id"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Url       string `json:"url"`
	Source    Source `json:"source"`
}

type Page struct {
	Results       []Video `json:"results"`
	HasMore       bool    `json:"hasMore"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

type Provider interface {
	Search(ctx context.Context, query, pageToken string) (Page, error)
}

// Service routes a search to the provider registered for its source.
type Service struct {
	providers map[Source]Provider
}

func NewService() *Service {
	return &Service{providers: make(map[Source]Provider)}
}

func (s *Service) Register(source Source, provider Provider) {
	s.providers[source] = provider
}

func (s *Service) Search(ctx context.Context, query string, source Source, pageToken string) (Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Page{}, ErrEmptyQuery
	}

	provider, ok := s.providers[source]
	if !ok {
		return Page{}, fmt.Errorf("%w: %q", ErrUnsupportedSource, source)
	}

	page, err := provider.Search(ctx, query, pageToken)
	if err != nil {
		return Page{}, fmt.Errorf("failed to search %s: %w", source, err)
	}
	if page.Results == nil {
		page.Results = []Video{}
	}

	return page, nil
}
