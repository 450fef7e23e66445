// Package fcm manages topic membership through the Instance ID REST API.
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/news-relay/app/push"
)

const defaultBaseURL = "https://iid.googleapis.com"

var (
	_ push.Platform = (*Client)(nil)

	ErrNoToken      = errors.New("no device token available from the platform")
	ErrInvalidTopic = errors.New("topic name is invalid")
)

// PlatformError carries the per-token error the Instance ID API reported.
type PlatformError struct {
	Operation string
	Topic     string
	Reason    string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("fcm %s %s: %s", e.Operation, e.Topic, e.Reason)
}

type Client struct {
	serverKey   string
	deviceToken string
	baseURL     string
	httpClient  *http.Client
}

// NewClient creates a client authorised with the legacy server key.
// deviceToken is what Token returns; a server cannot mint device tokens, so
// it is either provisioned or empty.
func NewClient(serverKey, deviceToken string) *Client {
	return &Client{
		serverKey:   serverKey,
		deviceToken: deviceToken,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Token(ctx context.Context) (string, error) {
	if c.deviceToken == "" {
		return "", ErrNoToken
	}
	return c.deviceToken, nil
}

func (c *Client) Subscribe(ctx context.Context, token, topic string) error {
	return c.batch(ctx, "batchAdd", token, topic)
}

func (c *Client) Unsubscribe(ctx context.Context, token, topic string) error {
	return c.batch(ctx, "batchRemove", token, topic)
}

type batchRequest struct {
	To                 string   `json:"to"`
	RegistrationTokens []string `json:"registration_tokens"`
}

type batchResponse struct {
	Results []struct {
		Error string `json:"error,omitempty"`
	} `json:"results"`
}

func (c *Client) batch(ctx context.Context, operation, token, topic string) error {
	if !ValidTopic(topic) {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	if token == "" {
		return push.ErrEmptyToken
	}
	if c.serverKey == "" {
		return fmt.Errorf("fcm server key is not configured")
	}

	body, err := json.Marshal(batchRequest{
		To:                 "/topics/" + topic,
		RegistrationTokens: []string{token},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/iid/v1:"+operation, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)
	req.Header.Set("access_token_auth", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &PlatformError{Operation: operation, Topic: topic, Reason: resp.Status}
	}

	var parsed batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}

	for _, result := range parsed.Results {
		if result.Error != "" {
			return &PlatformError{Operation: operation, Topic: topic, Reason: result.Error}
		}
	}

	return nil
}

// ValidTopic matches the topic name rule enforced by FCM: [a-zA-Z0-9-_.~%]+.
func ValidTopic(topic string) bool {
	if topic == "" || len(topic) > 900 {
		return false
	}
	return strings.IndexFunc(topic, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case strings.ContainsRune("-_.~%", r):
			return false
		}
		return true
	}) == -1
}
