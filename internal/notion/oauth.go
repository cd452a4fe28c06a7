package notion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OAuthToken is the result of exchanging an authorization code.
type OAuthToken struct {
	AccessToken   string `json:"access_token"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
	WorkspaceIcon string `json:"workspace_icon"`
	BotID         string `json:"bot_id"`
}

// AuthorizeURL builds the Notion OAuth consent URL for a connect flow.
func AuthorizeURL(baseURL, clientID, redirectURI, state string) string {
	query := url.Values{}
	query.Set("client_id", clientID)
	query.Set("redirect_uri", redirectURI)
	query.Set("response_type", "code")
	query.Set("owner", "user")
	if state != "" {
		query.Set("state", state)
	}
	return strings.TrimRight(baseURL, "/") + "/v1/oauth/authorize?" + query.Encode()
}

// ExchangeOAuthCode trades an authorization code for an access token using
// HTTP basic auth with the integration's client credentials.
func ExchangeOAuthCode(ctx context.Context, baseURL, clientID, clientSecret, redirectURI, code string) (OAuthToken, error) {
	payload, err := json.Marshal(map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": redirectURI,
	})
	if err != nil {
		return OAuthToken{}, fmt.Errorf("marshal token request: %w", err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/v1/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return OAuthToken{}, fmt.Errorf("build token request: %w", err)
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpClient := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return OAuthToken{}, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return OAuthToken{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		apiErr.Status = resp.StatusCode
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return OAuthToken{}, apiErr
	}

	var token OAuthToken
	if err := json.Unmarshal(data, &token); err != nil {
		return OAuthToken{}, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return OAuthToken{}, fmt.Errorf("token exchange returned no access token")
	}
	return token, nil
}
