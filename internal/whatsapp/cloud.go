// Package whatsapp contains the two channel adapters: the Business Cloud
// API client used by the webhook variant, and the whatsmeow-backed session
// adapter used by the session variant.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaharia-lab/whatsbot/internal/observability"
)

// DefaultGraphAPIBaseURL is the WhatsApp Business Cloud API endpoint.
const DefaultGraphAPIBaseURL = "https://graph.facebook.com/v18.0"

// defaultSendRate is the outbound messages-per-second ceiling. The Cloud API
// throttles per phone number at 80 msg/s.
const defaultSendRate = 80

// ErrNotConfigured is returned when the Cloud API credentials are missing.
var ErrNotConfigured = errors.New("whatsapp: cloud API credentials not configured")

// CloudClientConfig holds configuration for CloudClient.
type CloudClientConfig struct {
	// AccessToken is the Bearer token for the Graph API. Required.
	AccessToken string
	// PhoneNumberID is the sending phone number identity. Required.
	PhoneNumberID string
	// BaseURL overrides the Graph API endpoint, primarily for tests.
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// Logger receives send diagnostics. Defaults to NullLogger.
	Logger observability.Logger
}

// CloudClient sends messages through the WhatsApp Business Cloud API.
type CloudClient struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	log           observability.Logger
}

// NewCloudClient creates a CloudClient with the specified configuration.
//
// Example usage:
//
//	client := NewCloudClient(CloudClientConfig{
//	    AccessToken:   "your-access-token",
//	    PhoneNumberID: "1234567890",
//	})
//	err := client.SendText(ctx, "15551234567", "hello")
func NewCloudClient(config CloudClientConfig) *CloudClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultGraphAPIBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.Logger == nil {
		config.Logger = observability.NewNullLogger()
	}

	return &CloudClient{
		accessToken:   config.AccessToken,
		phoneNumberID: config.PhoneNumberID,
		baseURL:       config.BaseURL,
		httpClient:    config.HTTPClient,
		limiter:       rate.NewLimiter(rate.Limit(defaultSendRate), defaultSendRate),
		log:           config.Logger,
	}
}

// Configured reports whether the client has the credentials needed to send.
func (c *CloudClient) Configured() bool {
	return c.accessToken != "" && c.phoneNumberID != ""
}

type textPayload struct {
	Body string `json:"body"`
}

type sendMessageRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

// SendText sends a text message to the given recipient through the Cloud API.
func (c *CloudClient) SendText(ctx context.Context, to, body string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload := sendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textPayload{Body: body},
	}

	respBody, err := c.post(ctx, fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID), payload)
	if err != nil {
		return err
	}

	c.log.WithFields(map[string]interface{}{"to": to, "response": string(respBody)}).
		Debug("whatsapp message sent")
	return nil
}

// SendTyping marks the conversation as being replied to. Best effort: the
// caller is expected to swallow failures.
func (c *CloudClient) SendTyping(ctx context.Context, to string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"status":            "read",
	}

	_, err := c.post(ctx, fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID), payload)
	return err
}

func (c *CloudClient) post(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graph API returned status %d: %s", resp.StatusCode, respBody)
	}
	return respBody, nil
}
