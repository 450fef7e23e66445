package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const setTokenPath = "/api/v1/notifications/set-token"

var _ DeviceRegistrar = (*DeviceClient)(nil)

type DeviceClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewDeviceClient(baseURL, authToken string, httpClient *http.Client) *DeviceClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &DeviceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: httpClient,
	}
}

type setTokenRequest struct {
	FCMToken   string  `json:"fcm_token"`
	DeviceType string  `json:"device_type,omitempty"`
	UserID     *string `json:"user_id"`
}

// SetToken registers token for the device. An empty userID is sent as null,
// which the API treats as a guest device.
func (c *DeviceClient) SetToken(ctx context.Context, token, deviceType, userID string) error {
	if c.baseURL == "" {
		return fmt.Errorf("news API base URL is not configured")
	}

	payload := setTokenRequest{FCMToken: token, DeviceType: deviceType}
	if userID != "" {
		payload.UserID = &userID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal set-token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+setTokenPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create set-token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to register token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("set-token returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return nil
}
