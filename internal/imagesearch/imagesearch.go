package imagesearch

import "context"

// Searcher maps a text query to at most one image URL.
type Searcher interface {
	// FirstImage returns the first image result for query, or "" with a nil
	// error when the search succeeded but found nothing.
	FirstImage(ctx context.Context, query string) (string, error)
}
