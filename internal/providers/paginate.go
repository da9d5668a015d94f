package providers

import (
	"context"
	"fmt"
)

// FetchAll follows continuation cursors and returns pages in order. When more
// pages remain after maxPages the fetched pages are returned together with an
// error wrapping ErrPageLimit.
func FetchAll(ctx context.Context, client Client, req Request, tier Tier, maxPages int) ([]Payload, error) {
	if maxPages <= 0 {
		maxPages = 1
	}
	pages := make([]Payload, 0, 1)
	for {
		page, err := client.Fetch(ctx, req, tier)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
		if page.NextCursor == "" {
			return pages, nil
		}
		if len(pages) >= maxPages {
			return pages, fmt.Errorf("%s %s stopped after %d pages: %w", client.Provider(), req.Endpoint, maxPages, ErrPageLimit)
		}
		req.Cursor = page.NextCursor
	}
}

// Bodies extracts the raw bytes of each page.
func Bodies(pages []Payload) [][]byte {
	out := make([][]byte, len(pages))
	for i, p := range pages {
		out[i] = p.Body
	}
	return out
}
