package pagination

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
)

// pages serves a fixed listing and records the cursors it was asked for
func pages(t *testing.T, listing [][]string, cursors *[]string) Fetcher[string] {
	t.Helper()
	return func(ctx context.Context, cursor string) (Page[string], error) {
		*cursors = append(*cursors, cursor)
		idx := 0
		if cursor != "" {
			n, err := strconv.Atoi(cursor)
			require.NoError(t, err)
			idx = n
		}
		page := Page[string]{Items: listing[idx]}
		if idx+1 < len(listing) {
			page.NextCursor = strconv.Itoa(idx + 1)
		}
		return page, nil
	}
}

func TestCollectFollowsCursors(t *testing.T) {
	var cursors []string
	items, err := Collect(context.Background(), pages(t, [][]string{{"a", "b"}, {"c"}, {"d"}}, &cursors), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, items)
	assert.Equal(t, []string{"", "1", "2"}, cursors)
}

func TestCollectEmptyListing(t *testing.T) {
	var cursors []string
	items, err := Collect(context.Background(), pages(t, [][]string{nil}, &cursors), 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCollectRepeatedCursor(t *testing.T) {
	calls := 0
	_, err := Collect(context.Background(), func(ctx context.Context, cursor string) (Page[int], error) {
		calls++
		return Page[int]{Items: []int{calls}, NextCursor: "same"}, nil
	}, 0)
	require.Error(t, err)
	assert.True(t, mcperrors.IsProtocol(err))
	assert.Equal(t, 2, calls)
}

func TestCollectPageLimit(t *testing.T) {
	calls := 0
	_, err := Collect(context.Background(), func(ctx context.Context, cursor string) (Page[int], error) {
		calls++
		return Page[int]{NextCursor: strconv.Itoa(calls)}, nil
	}, 3)
	require.Error(t, err)
	assert.True(t, mcperrors.IsProtocol(err))
	assert.Equal(t, 3, calls)
}

func TestCollectStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Collect(context.Background(), func(ctx context.Context, cursor string) (Page[int], error) {
		if cursor == "" {
			return Page[int]{Items: []int{1}, NextCursor: "next"}, nil
		}
		return Page[int]{}, boom
	}, 0)
	assert.ErrorIs(t, err, boom)
}

func TestCollectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, func(ctx context.Context, cursor string) (Page[int], error) {
		t.Fatal("fetch must not run")
		return Page[int]{}, nil
	}, 0)
	assert.True(t, mcperrors.IsCancelled(err))
}

func TestCollectorState(t *testing.T) {
	c := NewCollector[string]()
	assert.True(t, c.HasMore())
	require.NoError(t, c.Update(Page[string]{Items: []string{"x"}, NextCursor: "c1"}))
	assert.True(t, c.HasMore())
	assert.Equal(t, "c1", c.NextCursor())
	require.NoError(t, c.Update(Page[string]{Items: []string{"y"}}))
	assert.False(t, c.HasMore())
	assert.Equal(t, []string{"x", "y"}, c.Items())
	assert.Equal(t, 2, c.Pages())
}
