// Package catalog is the typed boundary around the remote property catalog.
// It issues search queries, fetches single properties, submits new listings
// with their media, and relays chat messages to the catalog's assistant.
// The client is stateless beyond in-flight request bookkeeping.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by GetProperty when the catalog has no property
// with the requested id.
var ErrNotFound = errors.New("property not found")

// Config holds catalog client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// DefaultConfig returns sensible defaults for a local catalog service.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:5000",
		Timeout: 15 * time.Second,
	}
}

// Client talks to the remote catalog over HTTP. All methods are
// request/response; any transport error or non-success envelope is reported
// as a failed call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	fetchGroup singleflight.Group
}

// NewClient creates a catalog client with default config.
func NewClient(baseURL string) *Client {
	cfg := DefaultConfig()
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a catalog client with custom config.
func NewClientWithConfig(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// envelope is the catalog's common response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// SearchProperties runs a filter search. Params must already contain only the
// constrained fields; empty values are never sent (the coordinator guarantees
// this via FilterQuery.Params).
func (c *Client) SearchProperties(ctx context.Context, params url.Values) ([]PropertySummary, error) {
	endpoint := c.baseURL + "/api/properties/search"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	env, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("search properties: %w", err)
	}

	var results []PropertySummary
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &results); err != nil {
			return nil, fmt.Errorf("search properties: parse results: %w", err)
		}
	}
	c.logger.Debug("catalog search completed",
		zap.Int("results", len(results)),
		zap.String("params", params.Encode()))
	return results, nil
}

// GetProperty fetches the full record for one property. Concurrent fetches
// for the same id are collapsed into a single request.
func (c *Client) GetProperty(ctx context.Context, id string) (*Property, error) {
	// Coincident fetches for one id share a single flight. The flight runs
	// detached from the initiating caller's context so one caller's
	// cancellation cannot fail the callers that joined it; the HTTP client's
	// timeout still bounds the request.
	v, err, _ := c.fetchGroup.Do(id, func() (interface{}, error) {
		return c.fetchProperty(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Property), nil
}

func (c *Client) fetchProperty(ctx context.Context, id string) (*Property, error) {
	resp, body, err := c.do(ctx, http.MethodGet, c.baseURL+"/api/properties/"+url.PathEscape(id), "", nil)
	if err != nil {
		return nil, fmt.Errorf("get property %s: %w", id, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get property %s: status %d: %s", id, resp.StatusCode, truncate(body, 200))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("get property %s: parse response: %w", id, err)
	}
	if !env.Success {
		return nil, ErrNotFound
	}

	var p Property
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return nil, fmt.Errorf("get property %s: parse property: %w", id, err)
	}
	return &p, nil
}

// CreateProperty submits the listing fields (no media) and returns the
// server-assigned property id.
func (c *Client) CreateProperty(ctx context.Context, req CreateRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("create property: marshal request: %w", err)
	}

	env, err := c.post(ctx, c.baseURL+"/api/properties/add", "application/json", payload)
	if err != nil {
		return "", fmt.Errorf("create property: %w", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		return "", fmt.Errorf("create property: parse response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create property: server returned no id")
	}
	c.logger.Info("property created", zap.String("id", created.ID))
	return created.ID, nil
}

// AttachMedia uploads an image batch for an already-created property.
func (c *Client) AttachMedia(ctx context.Context, propertyID string, files []MediaFile) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("images", f.Name)
		if err != nil {
			return fmt.Errorf("attach media: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return fmt.Errorf("attach media: %w", err)
		}
	}
	if err := w.WriteField("propertyId", propertyID); err != nil {
		return fmt.Errorf("attach media: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("attach media: %w", err)
	}

	if _, err := c.post(ctx, c.baseURL+"/api/properties/upload-images", w.FormDataContentType(), buf.Bytes()); err != nil {
		return fmt.Errorf("attach media: %w", err)
	}
	c.logger.Info("media attached",
		zap.String("propertyId", propertyID),
		zap.Int("files", len(files)))
	return nil
}

// SendChatMessage relays one user message to the catalog assistant and
// returns its reply text plus any attached property references.
func (c *Client) SendChatMessage(ctx context.Context, text string) (*ChatReply, error) {
	payload, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return nil, fmt.Errorf("send chat message: marshal request: %w", err)
	}

	resp, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/chat", "application/json", payload)
	if err != nil {
		return nil, fmt.Errorf("send chat message: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("send chat message: status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var reply ChatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("send chat message: parse reply: %w", err)
	}
	return &reply, nil
}

// Login authenticates and returns the account. The caller persists the
// returned user id as the submitter identity.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	return c.authRequest(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and returns it.
func (c *Client) Register(ctx context.Context, email, password, name, phone string) (*User, error) {
	return c.authRequest(ctx, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
		"phone":    phone,
	})
}

func (c *Client) authRequest(ctx context.Context, path string, fields map[string]string) (*User, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("auth request: marshal: %w", err)
	}

	resp, body, err := c.do(ctx, http.MethodPost, c.baseURL+path, "application/json", payload)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth request: status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var authResp struct {
		User User `json:"user"`
	}
	if err := json.Unmarshal(body, &authResp); err != nil {
		return nil, fmt.Errorf("auth request: parse response: %w", err)
	}
	if authResp.User.ID == "" {
		return nil, fmt.Errorf("auth request: server returned no user id")
	}
	return &authResp.User, nil
}

// get issues a GET and decodes the success envelope.
func (c *Client) get(ctx context.Context, endpoint string) (*envelope, error) {
	resp, body, err := c.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, err
	}
	return c.decodeEnvelope(resp, body)
}

// post issues a POST and decodes the success envelope.
func (c *Client) post(ctx context.Context, endpoint, contentType string, payload []byte) (*envelope, error) {
	resp, body, err := c.do(ctx, http.MethodPost, endpoint, contentType, payload)
	if err != nil {
		return nil, err
	}
	return c.decodeEnvelope(resp, body)
}

func (c *Client) decodeEnvelope(resp *http.Response, body []byte) (*envelope, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return nil, fmt.Errorf("catalog error: %s", msg)
	}
	return &env, nil
}

// do executes one request with a correlation id and returns the raw response.
// The response body is fully read and closed before returning.
func (c *Client) do(ctx context.Context, method, endpoint, contentType string, payload []byte) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
