package autologin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client implements TokenSource and Exchanger against the backend
// auto-login endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) FetchToken(ctx context.Context, sessionID string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/auth/token?session_id=%s", c.baseURL, url.QueryEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var res struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return "", fmt.Errorf("decode token response: %w", err)
		}
		return res.Token, nil
	case http.StatusNotFound:
		return "", ErrTokenNotReady
	default:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, string(body))
	}
}

func (c *Client) CreateFallbackToken(ctx context.Context, sessionID string) (string, error) {
	payload, err := json.Marshal(map[string]string{"session_id": sessionID})
	if err != nil {
		return "", fmt.Errorf("marshal fallback request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/token/fallback", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("create fallback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create fallback token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("fallback endpoint status %d: %s", resp.StatusCode, string(body))
	}

	var res struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode fallback response: %w", err)
	}

	return res.Token, nil
}

func (c *Client) Exchange(ctx context.Context, token, sessionID string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"token":      token,
		"session_id": sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/autologin", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("create exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("exchange endpoint status %d: %s", resp.StatusCode, string(body))
	}

	var res struct {
		Success     bool   `json:"success"`
		RedirectURL string `json:"redirectUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode exchange response: %w", err)
	}
	if !res.Success {
		return "", fmt.Errorf("exchange rejected")
	}

	return res.RedirectURL, nil
}
