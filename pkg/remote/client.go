// Package remote implements the HTTP client for the aggregation service
// JSON API. All calls carry basic auth and return typed errors for non-2xx
// responses so callers can distinguish auth failures from transport ones.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newsmirror/newsmirror/pkg/domain"
)

// Client talks to the aggregation service News API v1-2
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

// Config defines remote client parameters
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a remote client. BaseURL points at the service root,
// the API prefix is appended here.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/") + "/index.php/apps/news/api/v1-2",
		username: cfg.Username,
		password: cfg.Password,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// ItemsQuery describes a paginated item fetch. Offset 0 means "from the
// newest"; any other value returns items with ids strictly below it.
type ItemsQuery struct {
	BatchSize   int
	Offset      int64
	Scope       domain.Scope
	GetRead     bool
	OldestFirst bool
}

// User fetches the account profile
func (c *Client) User(ctx context.Context) (*domain.User, error) {
	var resp userResponse
	if err := c.get(ctx, "/user", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return &domain.User{UserID: resp.UserID, DisplayName: resp.DisplayName, LastLogin: resp.LastLoginTimestamp}, nil
}

// Folders fetches the complete folder list
func (c *Client) Folders(ctx context.Context) ([]domain.Folder, error) {
	var resp foldersResponse
	if err := c.get(ctx, "/folders", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch folders: %w", err)
	}
	folders := make([]domain.Folder, len(resp.Folders))
	for i := range resp.Folders {
		folders[i] = resp.Folders[i].toDomain()
	}
	return folders, nil
}

// Feeds fetches the complete feed list
func (c *Client) Feeds(ctx context.Context) ([]domain.Feed, error) {
	var resp feedsResponse
	if err := c.get(ctx, "/feeds", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch feeds: %w", err)
	}
	feeds := make([]domain.Feed, len(resp.Feeds))
	for i := range resp.Feeds {
		feeds[i] = resp.Feeds[i].toDomain()
	}
	return feeds, nil
}

// Items fetches one batch of items for a scope
func (c *Client) Items(ctx context.Context, q ItemsQuery) ([]domain.Item, error) {
	params := url.Values{}
	params.Set("batchSize", strconv.Itoa(q.BatchSize))
	params.Set("offset", strconv.FormatInt(q.Offset, 10))
	params.Set("type", strconv.Itoa(int(q.Scope.Type)))
	params.Set("id", strconv.FormatInt(q.Scope.ID, 10))
	params.Set("getRead", strconv.FormatBool(q.GetRead))
	params.Set("oldestFirst", strconv.FormatBool(q.OldestFirst))

	var resp itemsResponse
	if err := c.get(ctx, "/items", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	return toDomainItems(resp.Items), nil
}

// UpdatedItems fetches items modified on the server after lastModified
func (c *Client) UpdatedItems(ctx context.Context, lastModified int64, scope domain.Scope) ([]domain.Item, error) {
	params := url.Values{}
	params.Set("lastModified", strconv.FormatInt(lastModified, 10))
	params.Set("type", strconv.Itoa(int(scope.Type)))
	params.Set("id", strconv.FormatInt(scope.ID, 10))

	var resp itemsResponse
	if err := c.get(ctx, "/items/updated", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch updated items: %w", err)
	}
	return toDomainItems(resp.Items), nil
}

// MarkRead marks items read on the server
func (c *Client) MarkRead(ctx context.Context, itemIDs []int64) error {
	return c.putIDs(ctx, "/items/read/multiple", itemIDs)
}

// MarkUnread marks items unread on the server
func (c *Client) MarkUnread(ctx context.Context, itemIDs []int64) error {
	return c.putIDs(ctx, "/items/unread/multiple", itemIDs)
}

// MarkStarred stars items on the server
func (c *Client) MarkStarred(ctx context.Context, refs []StarRef) error {
	return c.putRefs(ctx, "/items/star/multiple", refs)
}

// MarkUnstarred unstars items on the server
func (c *Client) MarkUnstarred(ctx context.Context, refs []StarRef) error {
	return c.putRefs(ctx, "/items/unstar/multiple", refs)
}

func (c *Client) putIDs(ctx context.Context, path string, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	if err := c.put(ctx, path, itemIDsRequest{Items: itemIDs}); err != nil {
		return fmt.Errorf("push %s: %w", path, err)
	}
	return nil
}

func (c *Client) putRefs(ctx context.Context, path string, refs []StarRef) error {
	if len(refs) == 0 {
		return nil
	}
	if err := c.put(ctx, path, starRefsRequest{Items: refs}); err != nil {
		return fmt.Errorf("push %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) put(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
}

func toDomainItems(rows []itemJSON) []domain.Item {
	items := make([]domain.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].toDomain()
	}
	return items
}
