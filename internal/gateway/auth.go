package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TokenVerification is the auth API's verdict on a bearer token.
type TokenVerification struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

// AuthClient verifies tokens against the auth API.
type AuthClient struct {
	baseURL string
	client  *http.Client
}

func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *AuthClient) Verify(ctx context.Context, token string) (any, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, fmt.Errorf("auth api: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("auth api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("auth api: unexpected status %d", resp.StatusCode)
	}

	var verdict TokenVerification
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("auth api: decode response: %w", err)
	}
	return verdict, nil
}

// AuthFallback denies access when the auth API is unreachable or its
// breaker is open; callers must not treat the degraded verdict as valid.
func AuthFallback(ctx context.Context, input any, cause error) (any, error) {
	return TokenVerification{
		Valid:    false,
		Message:  "Authentication service unavailable",
		Degraded: true,
	}, nil
}
