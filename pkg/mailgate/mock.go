package mailgate

import (
	"context"
	"sync"
)

// MockClient is a mock mail relay client for testing
type MockClient struct {
	mu      sync.Mutex
	baseURL string
	sendErr error
	sent    []Message
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithSendError sets an error to return from Send
func WithSendError(err error) MockOption {
	return func(m *MockClient) {
		m.sendErr = err
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a new mock mail client
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{baseURL: "http://mock-mail.local"}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// SetBaseURL updates the base URL
func (m *MockClient) SetBaseURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseURL = url
}

// SetSendError changes the error returned from Send
func (m *MockClient) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// Send records the message unless an error is configured
func (m *MockClient) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the messages sent so far
func (m *MockClient) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
