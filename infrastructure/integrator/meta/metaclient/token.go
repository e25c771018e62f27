package metaclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// TokenResponse is the Graph API response of a token exchange.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// GetLongLivedToken exchanges a short-lived token for a long-lived one.
func GetLongLivedToken(shortLivedToken, appID, appSecret, baseURL, version string) (*TokenResponse, error) {
	if shortLivedToken == "" {
		return nil, fmt.Errorf("access token must not be empty")
	}

	endpoint := fmt.Sprintf("%s/%s/oauth/access_token", baseURL, version)

	params := url.Values{}
	params.Add("grant_type", "fb_exchange_token")
	params.Add("client_id", appID)
	params.Add("client_secret", appSecret)
	params.Add("fb_exchange_token", shortLivedToken)

	requestURL := endpoint + "?" + params.Encode()

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(requestURL)
	if err != nil {
		return nil, fmt.Errorf("requesting long-lived token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logrus.Errorf("Failed to obtain long-lived token. Status: %d, Body: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("failed to obtain long-lived token. Status: %d, Body: %s", resp.StatusCode, body)
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("the API returned an empty token")
	}

	logrus.Infof("Long-lived token obtained. Expires in %s.", FormatDuration(tokenResp.ExpiresIn))

	return &tokenResp, nil
}

// FormatDuration renders a duration in seconds as a readable string.
func FormatDuration(seconds int64) string {
	duration := time.Duration(seconds) * time.Second
	days := duration / (24 * time.Hour)
	hours := (duration % (24 * time.Hour)) / time.Hour
	minutes := (duration % time.Hour) / time.Minute

	return fmt.Sprintf("%d days, %d hours and %d minutes", days, hours, minutes)
}

// CheckTokenValidity probes the /me endpoint with the token.
func CheckTokenValidity(token, apiURL string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("token must not be empty")
	}

	requestURL := fmt.Sprintf("%s/me?fields=id,name&access_token=%s", apiURL, token)

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	resp, err := client.Get(requestURL)
	if err != nil {
		return false, fmt.Errorf("checking token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logrus.Warnf("Token invalid or expired. Status: %d, Body: %s", resp.StatusCode, string(body))
		return false, nil
	}

	return true, nil
}

// GetDebugTokenInfo queries the debug_token endpoint for token metadata.
func GetDebugTokenInfo(token, appID, appSecret, baseURL, version string) (map[string]interface{}, error) {
	endpoint := fmt.Sprintf("%s/%s/debug_token", baseURL, version)

	params := url.Values{}
	params.Add("input_token", token)
	params.Add("access_token", appID+"|"+appSecret)

	requestURL := endpoint + "?" + params.Encode()

	resp, err := http.Get(requestURL)
	if err != nil {
		return nil, fmt.Errorf("requesting token debug info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get token debug info. Status: %d, Body: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token debug response: %w", err)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decoding token debug response: %w", err)
	}

	return response, nil
}

// CalculateTokenExpiration converts expires_in seconds into a renewal
// deadline, one day early so rotation happens before the real expiry.
func CalculateTokenExpiration(expiresIn int64) time.Time {
	buffer := int64(24 * 60 * 60)
	safeExpiresIn := expiresIn - buffer

	if safeExpiresIn < 0 {
		safeExpiresIn = expiresIn / 2
	}

	return time.Now().Add(time.Duration(safeExpiresIn) * time.Second)
}
