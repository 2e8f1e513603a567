package biz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/fetscr/fetscr-backend/internal/scrape/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves scripted pages and records every call.
type fakeFetcher struct {
	pages []pageOrErr
	calls []int // start offsets, in invocation order
}

type pageOrErr struct {
	page *types.Page
	err  error
}

func (f *fakeFetcher) FetchPage(ctx context.Context, query string, start int) (*types.Page, error) {
	f.calls = append(f.calls, start)
	i := len(f.calls) - 1
	if i >= len(f.pages) {
		return &types.Page{HasMore: false}, nil
	}
	return f.pages[i].page, f.pages[i].err
}

// fullPage builds a page of n items with a cursor pointing at next.
func fullPage(n, next int, hasMore bool) *types.Page {
	page := &types.Page{NextStart: next, HasMore: hasMore}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("result-%d", i)
		page.Items = append(page.Items, &types.Result{Name: &name})
	}
	return page
}

func testLogger(t *testing.T) *logger.Logger {
	log, err := logger.New(logger.DefaultConfig())
	require.NoError(t, err)
	return log
}

func TestAggregator_SinglePageSatisfiesQuota(t *testing.T) {
	fetcher := &fakeFetcher{pages: []pageOrErr{
		{page: fullPage(10, 11, true)},
	}}
	agg := NewAggregator(fetcher, testLogger(t))

	results, err := agg.Aggregate(context.Background(), "x", 5)
	require.NoError(t, err)

	assert.Len(t, results, 5, "never returns more than entitled")
	assert.Equal(t, []int{1}, fetcher.calls, "one page covers five results")
}

func TestAggregator_FetchesUntilQuotaMet(t *testing.T) {
	fetcher := &fakeFetcher{pages: []pageOrErr{
		{page: fullPage(10, 11, true)},
		{page: fullPage(10, 21, true)},
		{page: fullPage(10, 31, true)},
	}}
	agg := NewAggregator(fetcher, testLogger(t))

	results, err := agg.Aggregate(context.Background(), "x", 25)
	require.NoError(t, err)

	assert.Len(t, results, 25)
	assert.Equal(t, []int{1, 11, 21}, fetcher.calls)
}

func TestAggregator_PageBudget(t *testing.T) {
	tests := []struct {
		wanted   int
		maxCalls int
	}{
		{wanted: 1, maxCalls: 1},
		{wanted: 10, maxCalls: 1},
		{wanted: 11, maxCalls: 2},
		{wanted: 50, maxCalls: 5},
		{wanted: 100, maxCalls: 10},
		{wanted: 500, maxCalls: 10}, // provider window caps the budget
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("wanted=%d", tt.wanted), func(t *testing.T) {
			var pages []pageOrErr
			for i := 0; i < 20; i++ {
				pages = append(pages, pageOrErr{page: fullPage(10, 1+(i+1)*10, true)})
			}
			fetcher := &fakeFetcher{pages: pages}
			agg := NewAggregator(fetcher, testLogger(t))

			_, err := agg.Aggregate(context.Background(), "x", tt.wanted)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(fetcher.calls), tt.maxCalls)
		})
	}
}

func TestAggregator_EmptyFirstPage(t *testing.T) {
	fetcher := &fakeFetcher{pages: []pageOrErr{
		{page: &types.Page{HasMore: false}},
	}}
	agg := NewAggregator(fetcher, testLogger(t))

	results, err := agg.Aggregate(context.Background(), "nothing", 50)
	require.NoError(t, err)

	assert.Empty(t, results)
	assert.Equal(t, []int{1}, fetcher.calls, "no further calls after an empty page")
}

func TestAggregator_StopsOnProviderExhaustion(t *testing.T) {
	fetcher := &fakeFetcher{pages: []pageOrErr{
		{page: fullPage(10, 11, true)},
		{page: fullPage(10, 21, false)}, // provider reports the window is done
	}}
	agg := NewAggregator(fetcher, testLogger(t))

	results, err := agg.Aggregate(context.Background(), "x", 50)
	require.NoError(t, err)

	assert.Len(t, results, 20)
	assert.Equal(t, []int{1, 11}, fetcher.calls)
}

func TestAggregator_MissingCursorAdvancesByPageSize(t *testing.T) {
	fetcher := &fakeFetcher{pages: []pageOrErr{
		{page: fullPage(10, 0, true)},
		{page: fullPage(10, 0, true)},
	}}
	agg := NewAggregator(fetcher, testLogger(t))

	_, err := agg.Aggregate(context.Background(), "x", 20)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 11}, fetcher.calls)
}

func TestAggregator_FirstPageFailure(t *testing.T) {
	providerErr := &types.ProviderError{StatusCode: 500, Message: "boom"}
	fetcher := &fakeFetcher{pages: []pageOrErr{
		{err: providerErr},
	}}
	agg := NewAggregator(fetcher, testLogger(t))

	_, err := agg.Aggregate(context.Background(), "x", 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, providerErr)
}

func TestAggregator_MidLoopFailureKeepsPartialResults(t *testing.T) {
	fetcher := &fakeFetcher{pages: []pageOrErr{
		{page: fullPage(10, 11, true)},
		{err: errors.New("upstream hiccup")},
	}}
	agg := NewAggregator(fetcher, testLogger(t))

	results, err := agg.Aggregate(context.Background(), "x", 30)
	require.NoError(t, err, "a failure after the first page is not fatal")
	assert.Len(t, results, 10)
}

func TestAggregator_ZeroWanted(t *testing.T) {
	fetcher := &fakeFetcher{}
	agg := NewAggregator(fetcher, testLogger(t))

	results, err := agg.Aggregate(context.Background(), "x", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, fetcher.calls)
}
