package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fetscr/fetscr-backend/internal/conf"
	"github.com/fetscr/fetscr-backend/internal/scrape/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(serverURL string) *GoogleProvider {
	return NewGoogleProvider(&conf.SearchConfig{
		APIHost: serverURL,
		APIKey:  "test-key",
		CX:      "test-cx",
		Timeout: 5,
	})
}

func TestGoogleProvider_FetchPage(t *testing.T) {
	var gotQuery, gotStart string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotStart = r.URL.Query().Get("start")
		fmt.Fprint(w, `{
			"queries": {"nextPage": [{"startIndex": 11}]},
			"items": [
				{
					"title": "Acme Corp - Home Page",
					"link": "https://acme.example",
					"snippet": "Welcome to Acme",
					"pagemap": {"cse_thumbnail": [{"src": "https://img.example/acme.png"}]}
				},
				{
					"title": "NoSeparatorHere",
					"link": "https://plain.example"
				}
			]
		}`)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	page, err := p.FetchPage(context.Background(), "acme", 1)
	require.NoError(t, err)

	assert.Equal(t, "acme", gotQuery)
	assert.Equal(t, "1", gotStart)

	assert.Equal(t, 11, page.NextStart)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)

	first := page.Items[0]
	require.NotNil(t, first.Name)
	require.NotNil(t, first.Title)
	assert.Equal(t, "Acme Corp", *first.Name)
	assert.Equal(t, "Home Page", *first.Title)
	require.NotNil(t, first.Link)
	assert.Equal(t, "https://acme.example", *first.Link)
	require.NotNil(t, first.Snippet)
	assert.Equal(t, "Welcome to Acme", *first.Snippet)
	require.NotNil(t, first.Image)
	assert.Equal(t, "https://img.example/acme.png", *first.Image)

	second := page.Items[1]
	require.NotNil(t, second.Name)
	assert.Equal(t, "NoSeparatorHere", *second.Name)
	assert.Nil(t, second.Title)
	assert.Nil(t, second.Snippet)
	assert.Nil(t, second.Image)
}

func TestGoogleProvider_FetchPage_EmptyItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"searchInformation": {"totalResults": "0"}}`)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	page, err := p.FetchPage(context.Background(), "nothing", 1)
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Equal(t, 0, page.NextStart)
}

func TestGoogleProvider_FetchPage_WindowCeiling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"queries": {"nextPage": [{"startIndex": 101}]},
			"items": [{"title": "Last Page"}]
		}`)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	page, err := p.FetchPage(context.Background(), "deep", 91)
	require.NoError(t, err)

	assert.Equal(t, 101, page.NextStart)
	assert.False(t, page.HasMore, "offsets past 100 are unreachable")
}

func TestGoogleProvider_FetchPage_NoCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [{"title": "Only Page"}]}`)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	page, err := p.FetchPage(context.Background(), "x", 1)
	require.NoError(t, err)

	assert.Equal(t, 0, page.NextStart)
	assert.True(t, page.HasMore)
}

func TestGoogleProvider_FetchPage_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	_, err := p.FetchPage(context.Background(), "x", 1)
	require.Error(t, err)

	var provErr *types.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
}

func TestGoogleProvider_FetchPage_EmptyQuery(t *testing.T) {
	p := newTestProvider("http://unused.example")
	_, err := p.FetchPage(context.Background(), "   ", 1)
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantName  *string
		wantTitle *string
	}{
		{
			name:      "name and title",
			raw:       "Acme Corp - Home Page",
			wantName:  strPtr("Acme Corp"),
			wantTitle: strPtr("Home Page"),
		},
		{
			name:      "no separator",
			raw:       "NoSeparatorHere",
			wantName:  strPtr("NoSeparatorHere"),
			wantTitle: nil,
		},
		{
			name:      "multiple separators keep remainder intact",
			raw:       "Acme - Products - Widgets",
			wantName:  strPtr("Acme"),
			wantTitle: strPtr("Products - Widgets"),
		},
		{
			name:      "empty title",
			raw:       "",
			wantName:  nil,
			wantTitle: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, title := splitTitle(tt.raw)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantTitle, title)
		})
	}
}

func strPtr(s string) *string {
	return &s
}
