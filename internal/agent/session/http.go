package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/store"
	"github.com/dmitrijs2005/tillkeeper/internal/common"
)

// HTTPAuthClient logs staff in against the document-store service.
type HTTPAuthClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPAuthClient creates an auth client for the service at baseURL.
func NewHTTPAuthClient(baseURL string) *HTTPAuthClient {
	return &HTTPAuthClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login posts the credentials to /api/v1/login and returns the issued
// token pair. A transport failure comes back as a connectivity-class
// store error so callers can decide to fall back to OfflineLogin.
func (c *HTTPAuthClient) Login(ctx context.Context, login string, password []byte) (TokenPair, error) {
	body, err := json.Marshal(loginRequest{Login: login, Password: string(password)})
	if err != nil {
		return TokenPair{}, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/login", bytes.NewReader(body))
	if err != nil {
		return TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, store.NewError(store.CodeUnavailable, "network error: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return TokenPair{}, common.ErrorInvalidLoginPassword
	default:
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Code != "" {
			return TokenPair{}, store.NewError(store.Code(apiErr.Code), "%s", apiErr.Message)
		}
		return TokenPair{}, store.NewError(store.CodeInternal, "login failed: %s", resp.Status)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return TokenPair{}, fmt.Errorf("decode login response: %w", err)
	}
	return TokenPair{AccessToken: lr.AccessToken, RefreshToken: lr.RefreshToken}, nil
}
