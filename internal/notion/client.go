package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"

	pageSize = 100
)

// Client is a minimal Notion API client for reading a database
type Client struct {
	BaseURL    string
	Token      string
	Version    string
	httpClient *http.Client
}

// NewClient creates a new Notion client
func NewClient(token, version string) *Client {
	if version == "" {
		version = DefaultVersion
	}
	return &Client{
		BaseURL: DefaultBaseURL,
		Token:   token,
		Version: version,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Page is a database row as returned by the query endpoint
type Page struct {
	ID             string              `json:"id"`
	URL            string              `json:"url"`
	LastEditedTime string              `json:"last_edited_time"`
	Properties     map[string]Property `json:"properties"`
}

type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// QueryDatabase returns every page in the database, following pagination
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) ([]Page, error) {
	endpoint := fmt.Sprintf("%s/databases/%s/query", c.BaseURL, url.PathEscape(databaseID))
	payload := map[string]any{"page_size": pageSize}

	var pages []Page
	for {
		resp, err := c.query(ctx, endpoint, payload)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)
		slog.Debug("Fetched Notion page batch", "batch_size", len(resp.Results), "total", len(pages))

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		payload["start_cursor"] = resp.NextCursor
	}
	return pages, nil
}

func (c *Client) query(ctx context.Context, endpoint string, payload map[string]any) (*queryResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create Notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Notion-Version", c.Version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Notion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Notion API returned status %d: %s", resp.StatusCode, string(msg))
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode Notion response: %w", err)
	}
	return &out, nil
}
