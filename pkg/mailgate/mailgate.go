// Package mailgate provides a client for an HTTP mail relay.
package mailgate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/abrezinsky/surveydesk/internal/logger"
)

// ErrNotConfigured is returned when no relay URL is set
var ErrNotConfigured = errors.New("mail relay not configured")

// Message is one outgoing email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Outcome is the status block returned by the relay
type Outcome struct {
	Summary     string `json:"summary"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// SendResponse is the response from the relay's send endpoint
type SendResponse struct {
	ID      string  `json:"id"`
	Outcome Outcome `json:"outcome"`
}

// Client defines the interface for mail relay operations
type Client interface {
	// Send delivers a message through the relay
	Send(ctx context.Context, msg Message) error
	// BaseURL returns the configured relay base URL
	BaseURL() string
	// SetBaseURL updates the relay base URL
	SetBaseURL(url string)
}

// HTTPClient posts messages to a relay at {baseURL}/send
type HTTPClient struct {
	mu         sync.RWMutex
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new relay client
func NewHTTPClient(baseURL, apiKey string, log logger.Logger) *HTTPClient {
	return NewHTTPClientWithHTTPClient(baseURL, apiKey, &http.Client{Timeout: 15 * time.Second}, log)
}

// NewHTTPClientWithHTTPClient creates a new relay client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL, apiKey string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured relay base URL
func (c *HTTPClient) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL updates the relay base URL. Settings changes at runtime call this.
func (c *HTTPClient) SetBaseURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(url, "/")
}

// Send delivers a message through the relay
func (c *HTTPClient) Send(ctx context.Context, msg Message) error {
	baseURL := c.BaseURL()
	if baseURL == "" {
		return ErrNotConfigured
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("mail: empty recipient")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	apiURL := baseURL + "/send"
	c.log.Debug("Mail relay request", "method", "POST", "url", apiURL, "to", msg.To, "subject", msg.Subject)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to mail relay: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("Mail relay response", "status", resp.StatusCode, "body", string(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail relay returned status %d: %s", resp.StatusCode, string(body))
	}

	// An empty 2xx body counts as accepted
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var response SendResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if response.Outcome.Summary == "failure" {
		return fmt.Errorf("mail relay error: %s (%s)", response.Outcome.Description, response.Outcome.Code)
	}
	return nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
