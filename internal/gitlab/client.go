// Package gitlab is a small client for the GitLab REST API.
//
// It covers what the issue list needs: projects, members, issues and the
// issue state/edit endpoints. Responses are returned as raw JSON so that
// the caller can decode them into its own entity graph on its own
// goroutine. Write requests are form-encoded.
package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAPIPath is appended to the server URL for every request
	DefaultAPIPath = "/api/v4"

	// DefaultPerPage is the page size requested for list endpoints
	DefaultPerPage = 100

	// DefaultTimeout bounds a single request
	DefaultTimeout = 5 * time.Second

	// maxResponseSize caps how much of a response body is read
	maxResponseSize = 16 << 20

	// maxPages bounds how many pages a list request follows
	maxPages = 100
)

// Config holds configuration for creating a Client
type Config struct {
	// BaseURL is the server root, e.g. "https://gitlab.example.com"
	BaseURL string

	// APIPath defaults to DefaultAPIPath
	APIPath string

	// Token is the private access token sent as PRIVATE-TOKEN
	Token string

	// PerPage defaults to DefaultPerPage
	PerPage int

	// HTTPClient defaults to a client with Timeout
	HTTPClient *http.Client

	// Timeout is used when HTTPClient is nil. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// Client talks to one GitLab server on behalf of one token
type Client struct {
	baseURL    string
	token      string
	perPage    int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client. It fails when the base URL is not an
// absolute http(s) URL.
func NewClient(config Config) (*Client, error) {
	base := strings.TrimRight(config.BaseURL, "/")
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("gitlab: invalid server URL %q: %w", config.BaseURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("gitlab: server URL must be absolute http(s) (got %q)", config.BaseURL)
	}

	apiPath := config.APIPath
	if apiPath == "" {
		apiPath = DefaultAPIPath
	}
	apiPath = "/" + strings.Trim(apiPath, "/")

	perPage := config.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    base + apiPath,
		token:      config.Token,
		perPage:    perPage,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// do sends one request and returns the response body. form is encoded
// as the request body for non-GET methods. Non-2xx responses produce an
// *APIError.
func (c *Client) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	data, _, err := c.send(ctx, method, path, form)
	return data, err
}

func (c *Client) send(ctx context.Context, method, path string, form url.Values) ([]byte, http.Header, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("gitlab: building request: %w", err)
	}
	request.Header.Set("PRIVATE-TOKEN", c.token)
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Accept-Charset", "utf-8")
	if form != nil {
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.logger.Debug("gitlab request", "method", method, "path", path)
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, nil, fmt.Errorf("gitlab: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	// one byte past the limit tells a full body from a truncated one
	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("gitlab: reading response body: %w", err)
	}
	if len(data) > maxResponseSize {
		return nil, nil, fmt.Errorf("gitlab: %s %s: %w (limit %d bytes)", method, path, ErrResponseTooLarge, maxResponseSize)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: response.StatusCode, Message: errorMessage(data, response.Status)}
		c.logger.Debug("gitlab request failed", "method", method, "path", path, "status", response.StatusCode)
		return nil, nil, apiErr
	}
	return data, response.Header, nil
}

// list fetches every page of a list endpoint, following X-Next-Page,
// and returns the items as one JSON array
func (c *Client) list(ctx context.Context, path string) ([]byte, error) {
	data, header, err := c.send(ctx, http.MethodGet, path+c.listQuery(), nil)
	if err != nil {
		return nil, err
	}
	next := header.Get("X-Next-Page")
	if next == "" {
		return data, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("gitlab: decoding page of %s: %w", path, err)
	}
	for pages := 1; next != ""; pages++ {
		if pages == maxPages {
			c.logger.Warn("gitlab list truncated", "path", path, "pages", pages, "items", len(items))
			break
		}
		page, err := strconv.Atoi(next)
		if err != nil {
			return nil, fmt.Errorf("gitlab: invalid X-Next-Page %q for %s", next, path)
		}
		data, header, err = c.send(ctx, http.MethodGet, path+c.listQuery()+"&page="+strconv.Itoa(page), nil)
		if err != nil {
			return nil, err
		}
		var more []json.RawMessage
		if err := json.Unmarshal(data, &more); err != nil {
			return nil, fmt.Errorf("gitlab: decoding page %d of %s: %w", page, path, err)
		}
		items = append(items, more...)
		next = header.Get("X-Next-Page")
	}

	merged, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("gitlab: merging pages of %s: %w", path, err)
	}
	return merged, nil
}

// errorMessage extracts GitLab's {"message": ...} or {"error": ...}
// from an error body, falling back to the status line.
func errorMessage(body []byte, status string) string {
	var parsed struct {
		Message any    `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &parsed); err == nil {
		switch message := parsed.Message.(type) {
		case string:
			if message != "" {
				return message
			}
		case nil:
		default:
			if encoded, err := json.Marshal(message); err == nil {
				return string(encoded)
			}
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return status
}

func (c *Client) listQuery() string {
	return "?per_page=" + strconv.Itoa(c.perPage)
}
