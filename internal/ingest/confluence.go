// Package ingest pulls the article corpus out of Confluence, stores the
// snapshot, and drives the scheduled full rebuilds of the corpus index.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"kbwatch/internal/domain"
	"kbwatch/internal/textproc"
)

const defaultPageLimit = 50

// ConfluenceClient fetches articles from a single Confluence space using
// the REST content API with basic auth.
type ConfluenceClient struct {
	baseURL  string
	email    string
	apiToken string
	spaceKey string
	client   *http.Client
}

func NewConfluenceClient(baseURL, email, apiToken, spaceKey string, client *http.Client) *ConfluenceClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ConfluenceClient{
		baseURL:  baseURL,
		email:    email,
		apiToken: apiToken,
		spaceKey: spaceKey,
		client:   client,
	}
}

type contentPage struct {
	Results []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Body  struct {
			Storage struct {
				Value string `json:"value"`
			} `json:"storage"`
		} `json:"body"`
	} `json:"results"`
	Size int `json:"size"`
}

// FetchArticles pages through the space content and returns the articles
// with their storage HTML already converted to visible plain text. The
// full normalization pass (lowercasing, stopwords) happens later at index
// build time.
func (c *ConfluenceClient) FetchArticles(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	start := 0
	for {
		page, err := c.fetchPage(ctx, start, defaultPageLimit)
		if err != nil {
			return nil, err
		}
		if len(page.Results) == 0 {
			break
		}
		for _, r := range page.Results {
			docs = append(docs, domain.Document{
				ID:      r.ID,
				Title:   r.Title,
				RawText: textproc.StripMarkup(r.Body.Storage.Value),
			})
		}
		if len(page.Results) < defaultPageLimit {
			break
		}
		start += defaultPageLimit
	}
	log.Printf("confluence fetch space=%s articles=%d", c.spaceKey, len(docs))
	return docs, nil
}

func (c *ConfluenceClient) fetchPage(ctx context.Context, start, limit int) (*contentPage, error) {
	q := url.Values{}
	q.Set("spaceKey", c.spaceKey)
	q.Set("expand", "body.storage")
	q.Set("start", strconv.Itoa(start))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/api/content?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("confluence API error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("confluence API status %d: %s", resp.StatusCode, body)
	}

	var page contentPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parsing confluence response: %w", err)
	}
	return &page, nil
}
