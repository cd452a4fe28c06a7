package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

// Client is a thin wrapper over the Notion REST API. One client is bound to
// one access token (integration secret or OAuth token).
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a client against the public Notion API.
func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a specific endpoint. Used by
// tests to point at an httptest server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// APIError is a non-2xx answer from the Notion API, keeping the remote error
// code so callers can map object_not_found and unauthorized to specific
// user-facing messages.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api: %s (%d): %s", e.Code, e.Status, e.Message)
}

// IsNotFound reports whether err is the Notion API telling us the target
// page or block does not exist (or the integration cannot see it).
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == "object_not_found" ||
		strings.Contains(apiErr.Message, "Could not find page")
}

// IsUnauthorized reports whether err means the access token was rejected.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized ||
		apiErr.Code == "unauthorized" ||
		strings.Contains(apiErr.Message, "Invalid token")
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read notion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		apiErr.Status = resp.StatusCode
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode notion response: %w", err)
		}
	}
	return nil
}

// Page is the subset of a Notion page object the service cares about.
type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Database identifies a created database.
type Database struct {
	ID string `json:"id"`
}

// NormalizePageID strips hyphens and surrounding whitespace from a
// user-supplied page id. No further validation is applied; a bad id
// surfaces as object_not_found from the API.
func NormalizePageID(pageID string) string {
	return strings.TrimSpace(strings.ReplaceAll(pageID, "-", ""))
}

// CreatePage creates a page under parentPageID with the given title, icon
// and pre-encoded child blocks.
func (c *Client) CreatePage(ctx context.Context, parentPageID, title, icon string, children []map[string]any) (Page, error) {
	body := map[string]any{
		"parent": map[string]any{"page_id": parentPageID},
		"properties": map[string]any{
			"title": map[string]any{"title": richText(title)},
		},
		"children": children,
	}
	if icon != "" {
		body["icon"] = emojiIcon(icon)
	}
	var page Page
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// CreateDatabase creates an inline database under a parent page.
func (c *Client) CreateDatabase(ctx context.Context, parentPageID, title string, properties map[string]any) (Database, error) {
	body := map[string]any{
		"parent":     map[string]any{"type": "page_id", "page_id": parentPageID},
		"title":      richText(title),
		"properties": properties,
	}
	var db Database
	if err := c.do(ctx, http.MethodPost, "/v1/databases", body, &db); err != nil {
		return Database{}, err
	}
	return db, nil
}

// CreateDatabaseRow inserts one row (a page) into a database.
func (c *Client) CreateDatabaseRow(ctx context.Context, databaseID string, properties map[string]any) error {
	body := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": properties,
	}
	return c.do(ctx, http.MethodPost, "/v1/pages", body, nil)
}

// RetrievePage fetches the raw page object.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (map[string]any, error) {
	var page map[string]any
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+pageID, nil, &page); err != nil {
		return nil, err
	}
	return page, nil
}

// ListChildren fetches the first page of child blocks, up to pageSize
// (capped at 100 by the API). Pagination past the first page is not
// supported.
func (c *Client) ListChildren(ctx context.Context, blockID string, pageSize int) ([]map[string]any, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	var response struct {
		Results []map[string]any `json:"results"`
	}
	path := fmt.Sprintf("/v1/blocks/%s/children?page_size=%d", blockID, pageSize)
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// UpdatePageProperties sets a page's title and, when non-empty, its icon.
func (c *Client) UpdatePageProperties(ctx context.Context, pageID, title, icon string) error {
	body := map[string]any{
		"properties": map[string]any{
			"title": map[string]any{"title": richText(title)},
		},
	}
	if icon != "" {
		body["icon"] = emojiIcon(icon)
	}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, body, nil)
}

// UpdateBlock patches one block with a pre-encoded update payload.
func (c *Client) UpdateBlock(ctx context.Context, blockID string, payload map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/v1/blocks/"+blockID, payload, nil)
}

// DeleteBlock archives one block.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/blocks/"+blockID, nil, nil)
}

// AppendChildren appends pre-encoded blocks at the end of a block's (or
// page's) child list in one call.
func (c *Client) AppendChildren(ctx context.Context, blockID string, children []map[string]any) error {
	body := map[string]any{"children": children}
	return c.do(ctx, http.MethodPatch, "/v1/blocks/"+blockID+"/children", body, nil)
}
