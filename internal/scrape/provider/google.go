package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fetscr/fetscr-backend/internal/conf"
	"github.com/fetscr/fetscr-backend/internal/scrape/types"
	"github.com/tidwall/gjson"
)

// resultWindowCeiling is the provider's absolute cap on fetchable
// results per query: no page may start beyond offset 100.
const resultWindowCeiling = 100

// GoogleProvider fetches single pages from the Google Custom Search API.
// Each FetchPage call performs exactly one outbound request; a failure is
// surfaced immediately, never retried.
type GoogleProvider struct {
	config     *conf.SearchConfig
	httpClient *http.Client
}

func NewGoogleProvider(cfg *conf.SearchConfig) *GoogleProvider {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &GoogleProvider{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// FetchPage retrieves the page of results beginning at the 1-based
// offset start.
func (p *GoogleProvider) FetchPage(ctx context.Context, query string, start int) (*types.Page, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.ErrEmptyQuery
	}
	if start < 1 {
		start = 1
	}

	params := url.Values{}
	params.Set("key", p.config.APIKey)
	params.Set("cx", p.config.CX)
	params.Set("q", query)
	params.Set("start", fmt.Sprintf("%d", start))

	apiURL := fmt.Sprintf("%s/customsearch/v1?%s", p.config.APIHost, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &types.ProviderError{Message: "failed to execute request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.ProviderError{Message: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &types.ProviderError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	if !gjson.ValidBytes(body) {
		return nil, &types.ProviderError{Message: "invalid JSON in response"}
	}

	return parsePage(body), nil
}

// parsePage maps the provider's document into a Page. An absent or empty
// item list yields an empty page with HasMore false.
func parsePage(body []byte) *types.Page {
	doc := gjson.ParseBytes(body)

	items := doc.Get("items")
	if !items.Exists() || len(items.Array()) == 0 {
		return &types.Page{HasMore: false}
	}

	page := &types.Page{}

	// The pagination cursor is absent on the final page.
	if next := doc.Get("queries.nextPage.0.startIndex"); next.Exists() {
		page.NextStart = int(next.Int())
		page.HasMore = page.NextStart <= resultWindowCeiling
	} else {
		page.HasMore = true
	}

	for _, item := range items.Array() {
		name, title := splitTitle(item.Get("title").String())
		page.Items = append(page.Items, &types.Result{
			Name:    name,
			Title:   title,
			Link:    optString(item.Get("link")),
			Snippet: optString(item.Get("snippet")),
			Image:   optString(item.Get("pagemap.cse_thumbnail.0.src")),
		})
	}

	return page
}

// splitTitle breaks a raw provider title on the first " - " separator.
// "Acme Corp - Home Page" becomes ("Acme Corp", "Home Page"); a title
// without the separator keeps everything in name.
func splitTitle(raw string) (name, title *string) {
	if raw == "" {
		return nil, nil
	}

	before, after, found := strings.Cut(raw, " - ")
	if !found {
		return &before, nil
	}

	if before != "" {
		name = &before
	}
	if after != "" {
		title = &after
	}
	return name, title
}

func optString(v gjson.Result) *string {
	if !v.Exists() || v.String() == "" {
		return nil
	}
	s := v.String()
	return &s
}
