package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lumina/agent-api/core"
)

// maxExtractedChars bounds the text handed back from a fetched page.
const maxExtractedChars = 8000

type BrowserFetchArgs struct {
	URL string `json:"url" validate:"required,url"`
}

// BrowserFetchAdapter downloads a page and extracts its readable text.
type BrowserFetchAdapter struct {
	client *http.Client
}

func NewBrowserFetchAdapter(client *http.Client) *BrowserFetchAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &BrowserFetchAdapter{client: client}
}

func (a *BrowserFetchAdapter) Name() core.ToolName {
	return core.ToolBrowserFetch
}

func (a *BrowserFetchAdapter) Describe() core.ToolDescriptor {
	return core.ToolDescriptor{
		Name:        core.ToolBrowserFetch,
		Description: "Fetch a web page by URL and return its extracted text content.",
		Parameters:  core.MustSchema(&BrowserFetchArgs{}),
	}
}

func (a *BrowserFetchAdapter) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	var in BrowserFetchArgs
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
		return nil, fmt.Errorf("invalid arguments: url must use http or https")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", in.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", in.URL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", in.URL, err)
	}

	doc.Find("script, style, noscript, iframe").Remove()
	title := strings.TrimSpace(doc.Find("title").First().Text())
	content := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if content == "" {
		return nil, fmt.Errorf("no readable text at %s", in.URL)
	}
	if len(content) > maxExtractedChars {
		content = content[:maxExtractedChars]
	}

	return map[string]any{
		"url":     in.URL,
		"title":   title,
		"content": content,
	}, nil
}
