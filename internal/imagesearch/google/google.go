package google

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Searcher finds dish photos through Google Programmable Search. It needs an
// API key and the ID of a search engine configured for image results.
type Searcher struct {
	svc      *customsearch.Service
	engineID string
}

func NewSearcher(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*Searcher, error) {
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &Searcher{svc: svc, engineID: engineID}, nil
}

func (s *Searcher) FirstImage(ctx context.Context, query string) (string, error) {
	resp, err := s.svc.Cse.List().
		Cx(s.engineID).
		Q(query).
		SearchType("image").
		Num(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search for %q: %w", query, err)
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].Link, nil
}
