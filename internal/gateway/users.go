package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UserInfo is the profile returned by the users API for a tenant.
type UserInfo struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Degraded bool   `json:"degraded,omitempty"`
}

// UserClient fetches user profiles from the users API.
type UserClient struct {
	baseURL string
	client  *http.Client
}

func NewUserClient(baseURL string, timeout time.Duration) *UserClient {
	return &UserClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *UserClient) Fetch(ctx context.Context, username string) (any, error) {
	endpoint := c.baseURL + "/users/" + url.PathEscape(username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("users api: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("users api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("users api: unexpected status %d", resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("users api: decode response: %w", err)
	}
	if info.Username == "" {
		info.Username = username
	}
	return info, nil
}

// UserFallback builds the degraded profile served when the users API is
// unreachable or its breaker is open.
func UserFallback(ctx context.Context, input any, cause error) (any, error) {
	username, _ := input.(string)
	return UserInfo{
		Username: username,
		Name:     "Unknown User",
		Email:    username + "@example.com",
		Degraded: true,
	}, nil
}
