// Package search resolves image queries to candidate URLs via the
// Google Custom Search API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// GoogleClient implements swap.Searcher against the Custom Search API.
type GoogleClient struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
}

// NewGoogleClient builds a search client. The key and engine ID come
// from the Google programmable search console.
func NewGoogleClient(apiKey, engineID string, timeout time.Duration) *GoogleClient {
	return &GoogleClient{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: timeout},
	}
}

// searchResponse mirrors only the fields of the Custom Search response
// the bot reads: the first image object of each result's pagemap.
type searchResponse struct {
	Items []struct {
		Pagemap struct {
			ImageObject []struct {
				URL        string `json:"url"`
				ContentURL string `json:"contenturl"`
			} `json:"imageobject"`
		} `json:"pagemap"`
	} `json:"items"`
}

// Search returns the image URLs found for the query, in the engine's
// ranking order. A query with no results yields an empty slice.
func (c *GoogleClient) Search(ctx context.Context, query string) ([]string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse search base url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	var urls []string
	for _, item := range parsed.Items {
		if len(item.Pagemap.ImageObject) == 0 {
			continue
		}
		obj := item.Pagemap.ImageObject[0]
		link := obj.URL
		if link == "" {
			link = obj.ContentURL
		}
		if link != "" {
			urls = append(urls, link)
		}
	}
	return urls, nil
}
