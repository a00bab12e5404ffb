package search

import (
	"context"
)

// Result is a single ranked snippet returned by a web search.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchProvider defines the contract for any web-search backend
type SearchProvider interface {
	// Search runs a query and returns up to maxResults ranked snippets
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
