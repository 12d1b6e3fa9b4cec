package pagination

import (
	"context"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
)

// DefaultMaxPages bounds how many pages Collect fetches before giving up
const DefaultMaxPages = 1000

// Page is one slice of a listing plus the cursor for the next one.
// An empty NextCursor ends the listing.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// Fetcher retrieves the page that starts at cursor ("" for the first page)
type Fetcher[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Collector accumulates pages and decides whether another one is due
type Collector[T any] struct {
	// MaxPages stops the listing after this many pages; zero means DefaultMaxPages
	MaxPages int

	items  []T
	next   string
	pages  int
	done   bool
	cursor map[string]struct{}
}

// NewCollector creates an empty collector
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{cursor: make(map[string]struct{})}
}

// Update records a fetched page. A server handing out a cursor it already
// returned would loop forever, so that is reported as a protocol error.
func (c *Collector[T]) Update(page Page[T]) error {
	c.pages++
	c.items = append(c.items, page.Items...)
	c.next = page.NextCursor

	if c.next == "" {
		c.done = true
		return nil
	}
	if _, seen := c.cursor[c.next]; seen {
		c.done = true
		return mcperrors.ProtocolError("server repeated pagination cursor " + c.next)
	}
	c.cursor[c.next] = struct{}{}

	limit := c.MaxPages
	if limit <= 0 {
		limit = DefaultMaxPages
	}
	if c.pages >= limit {
		c.done = true
		return mcperrors.ProtocolError("listing exceeded the page limit").
			WithData(map[string]interface{}{"pages": c.pages, "nextCursor": c.next})
	}
	return nil
}

// HasMore reports whether another page should be fetched
func (c *Collector[T]) HasMore() bool {
	return !c.done
}

// NextCursor is the cursor to request next
func (c *Collector[T]) NextCursor() string {
	return c.next
}

// Items returns everything collected so far
func (c *Collector[T]) Items() []T {
	return c.items
}

// Pages is the number of pages recorded
func (c *Collector[T]) Pages() int {
	return c.pages
}

// Collect calls fetch until the server stops returning a cursor and returns
// the concatenated items. Items of a listing interrupted by an error are dropped.
func Collect[T any](ctx context.Context, fetch Fetcher[T], maxPages int) ([]T, error) {
	c := NewCollector[T]()
	c.MaxPages = maxPages
	for c.HasMore() {
		if err := ctx.Err(); err != nil {
			return nil, mcperrors.OperationCancelled("list", err)
		}
		page, err := fetch(ctx, c.NextCursor())
		if err != nil {
			return nil, err
		}
		if err := c.Update(page); err != nil {
			return nil, err
		}
	}
	items := c.Items()
	if items == nil {
		items = []T{}
	}
	return items, nil
}
