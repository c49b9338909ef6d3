package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// restClient calls the Identity Toolkit REST API for the flows the Admin SDK
// does not cover: password sign-in and out-of-band emails.
type restClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func newRESTClient(httpClient *http.Client, baseURL, apiKey string) *restClient {
	return &restClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	Registered   bool   `json:"registered"`
}

type oobCodeRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email,omitempty"`
	IDToken     string `json:"idToken,omitempty"`
	ContinueURL string `json:"continueUrl,omitempty"`
}

const (
	oobPasswordReset = "PASSWORD_RESET"
	oobVerifyEmail   = "VERIFY_EMAIL"
)

func (c *restClient) endpoint(method string) string {
	return fmt.Sprintf("%s/accounts:%s?key=%s", c.baseURL, method, url.QueryEscape(c.apiKey))
}

// post sends payload to the named accounts method and decodes a 200 response into out.
func (c *restClient) post(ctx context.Context, method string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return parseRESTError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}

func (c *restClient) signInWithPassword(ctx context.Context, email, password string) (*signInResponse, error) {
	payload := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var out signInResponse
	if err := c.post(ctx, "signInWithPassword", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *restClient) sendOobCode(ctx context.Context, req oobCodeRequest) error {
	return c.post(ctx, "sendOobCode", req, nil)
}
