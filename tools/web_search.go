package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"lumina/agent-api/core"
)

const defaultSearchURL = "https://html.duckduckgo.com/html"

// SearchResult is one ranked snippet from the search backend.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type WebSearchArgs struct {
	Query string `json:"query" validate:"required"`
}

// WebSearchAdapter scrapes the DuckDuckGo HTML endpoint for ranked result
// snippets.
type WebSearchAdapter struct {
	baseURL    string
	maxResults int
}

func NewWebSearchAdapter(baseURL string, maxResults int) *WebSearchAdapter {
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	if maxResults <= 0 {
		maxResults = 8
	}
	return &WebSearchAdapter{baseURL: baseURL, maxResults: maxResults}
}

func (a *WebSearchAdapter) Name() core.ToolName {
	return core.ToolWebSearch
}

func (a *WebSearchAdapter) Describe() core.ToolDescriptor {
	return core.ToolDescriptor{
		Name:        core.ToolWebSearch,
		Description: "Search the web and return ranked result snippets. Use for current events and facts outside the conversation.",
		Parameters:  core.MustSchema(&WebSearchArgs{}),
	}
}

func (a *WebSearchAdapter) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	var in WebSearchArgs
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}

	c := colly.NewCollector()
	if deadline, ok := ctx.Deadline(); ok {
		c.SetRequestTimeout(time.Until(deadline))
	}

	var results []SearchResult
	c.OnHTML("div.result", func(e *colly.HTMLElement) {
		if len(results) >= a.maxResults {
			return
		}
		title := strings.TrimSpace(e.ChildText("a.result__a"))
		link := resolveSearchLink(e.ChildAttr("a.result__a", "href"))
		snippet := strings.TrimSpace(e.ChildText(".result__snippet"))
		if title == "" || link == "" {
			return
		}
		results = append(results, SearchResult{Title: title, URL: link, Snippet: snippet})
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("search request failed (status %d): %w", r.StatusCode, err)
	})

	if err := c.Visit(a.baseURL + "?q=" + url.QueryEscape(in.Query)); err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	c.Wait()
	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for query %q", in.Query)
	}

	return map[string]any{
		"query":   in.Query,
		"results": results,
	}, nil
}

// resolveSearchLink unwraps DuckDuckGo's redirect links into the target URL.
func resolveSearchLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
